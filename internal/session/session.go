package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luvhive/hivelink/internal/store"
)

const (
	tokenKey   = "auth_token"
	profileKey = "user_profile"

	// DefaultScope is used when the embedding host reports no identity.
	DefaultScope = "default"
)

// Profile is the cached public summary of the signed-in user.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"profileImage,omitempty"`
}

// Session owns the bearer token lifecycle for one identity scope.
//
// Tokens are written under both a generic key and a scope-qualified key so
// that two host identities sharing the same storage sandbox can never read
// each other's credentials. At most one token is current per scope; a new
// login replaces the token, it is never refreshed in place.
type Session struct {
	store store.Store
	scope string
}

// New binds a Session to a store and an embedding-host identity. The scope
// is fixed for the lifetime of the Session: the host must have reported its
// identity (or its absence) before the first token read.
func New(st store.Store, hostUserID string) *Session {
	scope := strings.TrimSpace(hostUserID)
	if scope == "" {
		scope = DefaultScope
	}
	return &Session{store: st, scope: scope}
}

func (s *Session) Scope() string { return s.scope }

// readKeys lists the keys a scope may read. Only the default scope falls
// back to the generic key: it predates scoping, and letting other scopes
// read it would hand one host identity another identity's credential.
func (s *Session) readKeys(base string) []string {
	if s.scope == DefaultScope {
		return []string{scopedKey(base, s.scope), base}
	}
	return []string{scopedKey(base, s.scope)}
}

// Token returns the current token for the active scope, or the empty string
// when none is stored. Errors are swallowed: a caller asking for a token
// either gets one or proceeds unauthenticated.
func (s *Session) Token(ctx context.Context) string {
	for _, key := range s.readKeys(tokenKey) {
		v, ok, err := s.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		if tok := stripQuotes(v); tok != "" {
			return tok
		}
	}
	return ""
}

// SetToken persists a token under both keys. An empty token removes both.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.deleteBoth(ctx, tokenKey)
	}
	if err := s.store.Set(ctx, tokenKey, token); err != nil {
		return err
	}
	return s.store.Set(ctx, scopedKey(tokenKey, s.scope), token)
}

// Profile returns the cached user summary for the active scope.
func (s *Session) Profile(ctx context.Context) (*Profile, bool) {
	for _, key := range s.readKeys(profileKey) {
		v, ok, err := s.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var p Profile
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			continue
		}
		return &p, true
	}
	return nil, false
}

// SetProfile caches the user summary under both keys. A nil profile removes
// both.
func (s *Session) SetProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return s.deleteBoth(ctx, profileKey)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.Set(ctx, profileKey, string(raw)); err != nil {
		return err
	}
	return s.store.Set(ctx, scopedKey(profileKey, s.scope), string(raw))
}

// ClearAll removes the token and the cached profile under both the generic
// and the scoped keys. Used on logout and on any unauthorized response.
func (s *Session) ClearAll(ctx context.Context) error {
	var first error
	for _, base := range []string{tokenKey, profileKey} {
		if err := s.deleteBoth(ctx, base); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Session) deleteBoth(ctx context.Context, base string) error {
	if err := s.store.Delete(ctx, base); err != nil {
		return err
	}
	return s.store.Delete(ctx, scopedKey(base, s.scope))
}

func scopedKey(base, scope string) string {
	return base + "_" + scope
}

// stripQuotes undoes the accidental JSON quoting an older client left around
// stored tokens.
func stripQuotes(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
