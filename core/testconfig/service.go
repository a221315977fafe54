package testconfig

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("test configuration not found")

type (
	Repository interface {
		// GetConfig fetches by composite key. ErrNotFound when no
		// configuration was ever saved for the pair.
		GetConfig(ctx context.Context, courseID, testID string) (Config, error)
		CreateConfig(ctx context.Context, cfg Config) (Config, error)
		UpdateConfig(ctx context.Context, cfg Config) (Config, error)
	}

	Service interface {
		Load(ctx context.Context, courseID, testID string) (Config, error)
		Save(ctx context.Context, cfg Config, editorID string) (Config, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Load returns the persisted configuration for the pair, or the defaults
// when none exists yet. A defaulted config has no ID; saving it creates
// rather than updates.
func (svc *service) Load(ctx context.Context, courseID, testID string) (Config, error) {
	cfg, err := svc.repo.GetConfig(ctx, courseID, testID)
	if err == ErrNotFound {
		return DefaultConfig(courseID, testID), nil
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save validates and persists the configuration, creating or updating
// depending on whether it was loaded from the store. Schedule instants are
// normalized to UTC before hitting the store.
func (svc *service) Save(ctx context.Context, cfg Config, editorID string) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	// bound payloads set the coupled fields directly; re-apply the couplings
	// through the setters before persisting
	cfg.SetMaxAttempts(cfg.MaxAttempts)
	if cfg.IsProctored {
		// a preparation test only makes sense unproctored
		cfg.SetProctored(true)
	}

	if !cfg.StartAt.IsZero() {
		cfg.StartAt = cfg.StartAt.UTC()
	}
	if !cfg.EndAt.IsZero() {
		cfg.EndAt = cfg.EndAt.UTC()
	}

	now := time.Now().UTC()
	cfg.LastUpdatedBy = editorID
	cfg.UpdatedAt = now
	if !cfg.IsPersisted() {
		cfg.CreatedBy = editorID
		cfg.CreatedAt = now
		return svc.repo.CreateConfig(ctx, cfg)
	}
	return svc.repo.UpdateConfig(ctx, cfg)
}
