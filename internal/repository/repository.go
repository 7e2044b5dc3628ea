package repository

import (
	"context"

	"github.com/moodsong/api/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// CatalogRepository manages the activity and adjective catalogs.
type CatalogRepository interface {
	ListActivities(ctx context.Context) ([]domain.Activity, error)
	AddActivity(ctx context.Context, name string) (*domain.Activity, error)
	DeleteActivityByName(ctx context.Context, name string) error
	UpdateActivity(ctx context.Context, id int64, name string) (*domain.Activity, error)

	ListAdjectives(ctx context.Context) ([]domain.Adjective, error)
	AddAdjective(ctx context.Context, word string) (*domain.Adjective, error)
	DeleteAdjectiveByWord(ctx context.Context, word string) error
	UpdateAdjective(ctx context.Context, id int64, word string) (*domain.Adjective, error)
}

// SongRepository stores metadata for generated songs.
type SongRepository interface {
	CreateSong(ctx context.Context, song *domain.Song) error
	GetSongByFileName(ctx context.Context, fileName string) (*domain.Song, error)
}

// UsageRepository records per-endpoint accounting rows.
type UsageRepository interface {
	InsertUsage(ctx context.Context, usage domain.EndpointUsage) error
}
