package call

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// FactoryConfig controls engine-factory construction.
type FactoryConfig struct {
	Mode      string
	AppID     string
	ServerURL string
	Logger    zerolog.Logger
}

// NewEngineFactory selects the engine implementation. Auto prefers the
// signaling server when one is configured and falls back to the in-process
// mock otherwise, so a dev setup works with no vendor account.
func NewEngineFactory(cfg FactoryConfig) (EngineFactory, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.ServerURL) != "" {
			return newWSFactory(cfg)
		}
		return &MockFactory{}, nil
	case "ws":
		if strings.TrimSpace(cfg.ServerURL) == "" {
			return nil, errors.New("signaling server url is required for ws mode")
		}
		return newWSFactory(cfg)
	case "mock":
		return &MockFactory{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine mode %q", cfg.Mode)
	}
}

type wsFactory struct {
	appID     string
	serverURL string
	logger    zerolog.Logger
}

func newWSFactory(cfg FactoryConfig) (*wsFactory, error) {
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, errors.New("signaling app id is required")
	}
	return &wsFactory{
		appID:     cfg.AppID,
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		logger:    cfg.Logger,
	}, nil
}

func (f *wsFactory) Create(ctx context.Context) (Engine, error) {
	return newWSEngine(ctx, f.serverURL, f.appID, f.logger)
}
