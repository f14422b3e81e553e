package notify

import (
	"context"

	"github.com/luvhive/hivelink/internal/api"
)

// Backend is the slice of the API surface notification delivery reads from.
type Backend interface {
	IncomingCall(ctx context.Context) (*api.IncomingCall, error)
	UnreadCount(ctx context.Context) (int, error)
}

// Callbacks receive delivered notifications. Either may be nil.
type Callbacks struct {
	OnIncomingCall func(call api.IncomingCall)
	OnUnreadCount  func(count int)
}
