// Package song generates tracks via the external AI service and keeps
// the resulting audio on disk with metadata in the store.
package song

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
)

// ErrSongNotFound indicates a requested file is not on disk.
var ErrSongNotFound = errors.New("song: not found")

// Service orchestrates generation, storage, and playback of songs.
type Service struct {
	generator Generator
	songs     repository.SongRepository
	dir       string
	logger    *slog.Logger
}

// New constructs a Service writing audio files under dir.
func New(generator Generator, songs repository.SongRepository, dir string, logger *slog.Logger) Service {
	return Service{generator: generator, songs: songs, dir: dir, logger: logger}
}

// Create generates a song, writes the WAV to disk, and records metadata.
func (s Service) Create(ctx context.Context, activity, adjective1, adjective2 string) (*domain.Song, error) {
	audio, err := s.generator.Generate(ctx, activity, adjective1, adjective2)
	if err != nil {
		return nil, fmt.Errorf("generate song: %w", err)
	}

	id := uuid.NewString()
	fileName := id + ".wav"
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create songs dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, fileName), audio, 0o644); err != nil {
		return nil, fmt.Errorf("write song file: %w", err)
	}

	song := &domain.Song{
		ID:         id,
		FileName:   fileName,
		Activity:   activity,
		Adjective1: adjective1,
		Adjective2: adjective2,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.songs.CreateSong(ctx, song); err != nil {
		return nil, fmt.Errorf("store song metadata: %w", err)
	}
	s.logger.Info("song generated", "song_id", song.ID, "bytes", len(audio))
	return song, nil
}

// Open streams a previously saved song. The file name is reduced to its
// base component so path traversal cannot escape the songs directory.
func (s Service) Open(fileName string) (io.ReadCloser, error) {
	clean := filepath.Base(fileName)
	if clean == "." || clean == string(filepath.Separator) {
		return nil, ErrSongNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSongNotFound
		}
		return nil, err
	}
	return f, nil
}
