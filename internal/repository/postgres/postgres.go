package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.CatalogRepository = (*Repository)(nil)
	_ repository.SongRepository    = (*Repository)(nil)
	_ repository.UsageRepository   = (*Repository)(nil)
)

const uniqueViolation = "23505"

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrConflict
	}
	return err
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// GetUserByEmail fetches a user by email, case-insensitively.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, role, created_at
		FROM users WHERE LOWER(email) = LOWER($1)`
	row := r.pool.QueryRow(ctx, query, email)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, role, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListActivities returns the activity catalog.
func (r *Repository) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	const query = `SELECT id, name FROM activities ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(&activity.ID, &activity.Name); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// AddActivity inserts an activity and returns the stored row.
func (r *Repository) AddActivity(ctx context.Context, name string) (*domain.Activity, error) {
	const query = `INSERT INTO activities (name) VALUES ($1) RETURNING id, name`
	row := r.pool.QueryRow(ctx, query, name)
	var activity domain.Activity
	if err := row.Scan(&activity.ID, &activity.Name); err != nil {
		return nil, mapWriteErr(err)
	}
	return &activity, nil
}

// DeleteActivityByName removes an activity. Deleting a missing name is not an error.
func (r *Repository) DeleteActivityByName(ctx context.Context, name string) error {
	const query = `DELETE FROM activities WHERE name = $1`
	_, err := r.pool.Exec(ctx, query, name)
	return err
}

// UpdateActivity renames an activity by id.
func (r *Repository) UpdateActivity(ctx context.Context, id int64, name string) (*domain.Activity, error) {
	const query = `UPDATE activities SET name = $1 WHERE id = $2 RETURNING id, name`
	row := r.pool.QueryRow(ctx, query, name, id)
	var activity domain.Activity
	if err := row.Scan(&activity.ID, &activity.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapWriteErr(err)
	}
	return &activity, nil
}

// ListAdjectives returns the adjective catalog.
func (r *Repository) ListAdjectives(ctx context.Context) ([]domain.Adjective, error) {
	const query = `SELECT id, word FROM adjectives ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	adjectives := make([]domain.Adjective, 0)
	for rows.Next() {
		var adjective domain.Adjective
		if err := rows.Scan(&adjective.ID, &adjective.Word); err != nil {
			return nil, err
		}
		adjectives = append(adjectives, adjective)
	}
	return adjectives, rows.Err()
}

// AddAdjective inserts an adjective and returns the stored row.
func (r *Repository) AddAdjective(ctx context.Context, word string) (*domain.Adjective, error) {
	const query = `INSERT INTO adjectives (word) VALUES ($1) RETURNING id, word`
	row := r.pool.QueryRow(ctx, query, word)
	var adjective domain.Adjective
	if err := row.Scan(&adjective.ID, &adjective.Word); err != nil {
		return nil, mapWriteErr(err)
	}
	return &adjective, nil
}

// DeleteAdjectiveByWord removes an adjective. Deleting a missing word is not an error.
func (r *Repository) DeleteAdjectiveByWord(ctx context.Context, word string) error {
	const query = `DELETE FROM adjectives WHERE word = $1`
	_, err := r.pool.Exec(ctx, query, word)
	return err
}

// UpdateAdjective rewords an adjective by id.
func (r *Repository) UpdateAdjective(ctx context.Context, id int64, word string) (*domain.Adjective, error) {
	const query = `UPDATE adjectives SET word = $1 WHERE id = $2 RETURNING id, word`
	row := r.pool.QueryRow(ctx, query, word, id)
	var adjective domain.Adjective
	if err := row.Scan(&adjective.ID, &adjective.Word); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapWriteErr(err)
	}
	return &adjective, nil
}

// CreateSong inserts song metadata.
func (r *Repository) CreateSong(ctx context.Context, song *domain.Song) error {
	const query = `INSERT INTO songs (id, file_name, activity, adjective1, adjective2, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, song.ID, song.FileName, song.Activity, song.Adjective1, song.Adjective2, song.CreatedAt)
	if err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// GetSongByFileName looks up song metadata by stored file name.
func (r *Repository) GetSongByFileName(ctx context.Context, fileName string) (*domain.Song, error) {
	const query = `SELECT id, file_name, activity, adjective1, adjective2, created_at
		FROM songs WHERE file_name = $1`
	row := r.pool.QueryRow(ctx, query, fileName)
	var song domain.Song
	if err := row.Scan(&song.ID, &song.FileName, &song.Activity, &song.Adjective1, &song.Adjective2, &song.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &song, nil
}

// InsertUsage appends an endpoint accounting row.
func (r *Repository) InsertUsage(ctx context.Context, usage domain.EndpointUsage) error {
	const query = `INSERT INTO endpoint_usage (user_id, method, endpoint, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, usage.UserID, usage.Method, usage.Endpoint, usage.StatusCode, usage.CreatedAt)
	return err
}
