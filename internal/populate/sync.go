package populate

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/fedreg/internal/model"
)

// maxParallel bounds how many providers are synchronized at once.
const maxParallel = 4

var validate = model.NewValidator()

// Syncer pushes the configured providers to the registry.
type Syncer struct {
	Client   *Client
	Discover Discoverer
	Logger   zerolog.Logger
	// DryRun builds and checks every payload without contacting the
	// registry.
	DryRun bool
}

// Run synchronizes every provider concurrently. A failing provider stops at
// its first error without affecting the others; all failures are returned
// together.
func (s *Syncer) Run(ctx context.Context, cfg *Config) error {
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)
	g := new(errgroup.Group)
	g.SetLimit(maxParallel)
	for _, p := range cfg.Providers {
		g.Go(func() error {
			if err := s.Provider(ctx, p); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("provider %s: %w", providerName(p), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs.ErrorOrNil()
}

// Provider synchronizes one provider.
func (s *Syncer) Provider(ctx context.Context, p ProviderConfig) error {
	log := s.Logger.With().Str("provider", providerName(p)).Logger()

	payload, err := s.payload(ctx, p)
	if err != nil {
		return err
	}
	if err := payload.Check(); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	if s.DryRun {
		log.Info().
			Int("projects", len(payload.Projects)).
			Int("regions", len(payload.Regions)).
			Int("identity_providers", len(payload.IdentityProviders)).
			Msg("dry run: payload is valid")
		return nil
	}

	var out struct {
		UID string `json:"uid"`
	}
	action, err := s.Client.CreateOrUpdate(ctx, "providers", url.Values{"name": {payload.Name}}, payload, &out)
	if err != nil {
		return err
	}
	log.Info().Str("action", action).Str("uid", out.UID).Msg("provider synchronized")
	return nil
}

func (s *Syncer) payload(ctx context.Context, p ProviderConfig) (model.ProviderCreateExtended, error) {
	if p.PayloadFile != "" {
		return readPayload(p.PayloadFile)
	}
	return s.Discover.Discover(ctx, p)
}

func providerName(p ProviderConfig) string {
	if p.Name != "" {
		return p.Name
	}
	return p.PayloadFile
}
