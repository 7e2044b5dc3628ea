package song

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type generatorMock struct {
	generateFunc func(context.Context, string, string, string) ([]byte, error)
}

func (m generatorMock) Generate(ctx context.Context, activity, adjective1, adjective2 string) ([]byte, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, activity, adjective1, adjective2)
	}
	return []byte("RIFFfake-wav-data"), nil
}

type songRepoMock struct {
	createFunc func(context.Context, *domain.Song) error
	getFunc    func(context.Context, string) (*domain.Song, error)
}

func (m songRepoMock) CreateSong(ctx context.Context, song *domain.Song) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, song)
	}
	return nil
}

func (m songRepoMock) GetSongByFileName(ctx context.Context, fileName string) (*domain.Song, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, fileName)
	}
	return nil, repository.ErrNotFound
}

func TestCreateWritesFileAndMetadata(t *testing.T) {
	dir := t.TempDir()
	var stored *domain.Song
	repo := songRepoMock{
		createFunc: func(_ context.Context, song *domain.Song) error {
			stored = song
			return nil
		},
	}
	svc := New(generatorMock{}, repo, dir, newLogger())

	created, err := svc.Create(context.Background(), "hiking", "joyful", "brave")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.ID != created.ID {
		t.Fatalf("expected metadata row for created song")
	}
	if created.Activity != "hiking" || created.Adjective1 != "joyful" || created.Adjective2 != "brave" {
		t.Fatalf("unexpected metadata: %+v", created)
	}

	data, err := os.ReadFile(filepath.Join(dir, created.FileName))
	if err != nil {
		t.Fatalf("expected audio file on disk: %v", err)
	}
	if string(data) != "RIFFfake-wav-data" {
		t.Fatalf("unexpected file contents: %q", data)
	}
}

func TestCreateGeneratorFailure(t *testing.T) {
	genErr := errors.New("service unreachable")
	gen := generatorMock{
		generateFunc: func(context.Context, string, string, string) ([]byte, error) {
			return nil, genErr
		},
	}
	svc := New(gen, songRepoMock{}, t.TempDir(), newLogger())

	if _, err := svc.Create(context.Background(), "hiking", "joyful", "brave"); !errors.Is(err, genErr) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestCreateMetadataFailure(t *testing.T) {
	storeErr := errors.New("insert failed")
	repo := songRepoMock{
		createFunc: func(context.Context, *domain.Song) error { return storeErr },
	}
	svc := New(generatorMock{}, repo, t.TempDir(), newLogger())

	if _, err := svc.Create(context.Background(), "hiking", "joyful", "brave"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	svc := New(generatorMock{}, songRepoMock{}, t.TempDir(), newLogger())

	if _, err := svc.Open("nope.wav"); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestOpenStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(filepath.Dir(dir), "outside.wav")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}
	t.Cleanup(func() { os.Remove(outside) })

	svc := New(generatorMock{}, songRepoMock{}, dir, newLogger())
	if _, err := svc.Open("../outside.wav"); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected traversal to miss, got %v", err)
	}
}

func TestOpenServesSavedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "saved.wav"), []byte("RIFFaudio"), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}

	svc := New(generatorMock{}, songRepoMock{}, dir, newLogger())
	f, err := svc.Open("saved.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read song: %v", err)
	}
	if string(data) != "RIFFaudio" {
		t.Fatalf("unexpected contents: %q", data)
	}
}
