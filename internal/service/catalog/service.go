// Package catalog manages the activity and adjective word lists that
// feed song generation.
package catalog

import (
	"context"

	"log/slog"

	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
	"github.com/moodsong/api/internal/validate"
)

// Service exposes catalog CRUD.
type Service struct {
	repo   repository.CatalogRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.CatalogRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// ListActivities returns all activities.
func (s Service) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	return s.repo.ListActivities(ctx)
}

// AddActivity validates and inserts an activity.
func (s Service) AddActivity(ctx context.Context, name string) (*domain.Activity, error) {
	if err := validate.Word(name); err != nil {
		return nil, err
	}
	activity, err := s.repo.AddActivity(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("activity added", "id", activity.ID)
	return activity, nil
}

// DeleteActivity removes an activity by name.
func (s Service) DeleteActivity(ctx context.Context, name string) error {
	if err := validate.Word(name); err != nil {
		return err
	}
	return s.repo.DeleteActivityByName(ctx, name)
}

// UpdateActivity renames an activity by id.
func (s Service) UpdateActivity(ctx context.Context, id int64, name string) (*domain.Activity, error) {
	if err := validate.Word(name); err != nil {
		return nil, err
	}
	return s.repo.UpdateActivity(ctx, id, name)
}

// ListAdjectives returns all adjectives.
func (s Service) ListAdjectives(ctx context.Context) ([]domain.Adjective, error) {
	return s.repo.ListAdjectives(ctx)
}

// AddAdjective validates and inserts an adjective.
func (s Service) AddAdjective(ctx context.Context, word string) (*domain.Adjective, error) {
	if err := validate.Word(word); err != nil {
		return nil, err
	}
	adjective, err := s.repo.AddAdjective(ctx, word)
	if err != nil {
		return nil, err
	}
	s.logger.Info("adjective added", "id", adjective.ID)
	return adjective, nil
}

// DeleteAdjective removes an adjective by word.
func (s Service) DeleteAdjective(ctx context.Context, word string) error {
	if err := validate.Word(word); err != nil {
		return err
	}
	return s.repo.DeleteAdjectiveByWord(ctx, word)
}

// UpdateAdjective rewords an adjective by id.
func (s Service) UpdateAdjective(ctx context.Context, id int64, word string) (*domain.Adjective, error) {
	if err := validate.Word(word); err != nil {
		return nil, err
	}
	return s.repo.UpdateAdjective(ctx, id, word)
}
