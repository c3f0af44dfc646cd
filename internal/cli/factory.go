package cli

import (
	"context"
	"fmt"

	"todoview/internal/backend/googletasks"
	"todoview/internal/backend/rest"
	"todoview/internal/config"
	"todoview/internal/service"
)

// NewBackend is the production BackendFactory. It builds the backend cfg
// names.
func NewBackend(ctx context.Context, cfg *config.Config) (service.Backend, error) {
	switch cfg.Backend {
	case "", config.BackendREST:
		opts := []rest.Option{rest.WithLogger(cfg.Log())}
		if cfg.Token != "" {
			opts = append(opts, rest.WithToken(cfg.Token))
		}
		if cfg.RequestTimeout > 0 {
			opts = append(opts, rest.WithTimeout(cfg.RequestTimeout))
		}
		c, err := rest.New(cfg.APIBase, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendGoogleTasks:
		c, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Backend)
	}
}
