package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"client-reports/internal/config"

	"github.com/google/uuid"
)

var (
	ErrNotExist    = errors.New("storage: file does not exist")
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Storage defines the file storage operations used for report attachments.
// Paths are slash-separated keys relative to the storage root.
type Storage interface {
	// Save stores the content under path, overwriting an existing file.
	Save(ctx context.Context, path string, r io.Reader, contentType string) error

	// Open returns the stored content; ErrNotExist if there is none.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the file; deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the public URL the file is served under.
	URL(path string) string
}

// New creates a storage backend based on configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case config.StorageLocal:
		return NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
	case config.StorageS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

var invalidNameChars = regexp.MustCompile(`[^-\p{L}\p{M}\p{N}_.]`)

// ValidName приводит имя загруженного файла к безопасному виду: без каталогов,
// пробелы в подчёркивания, всё кроме букв (любого алфавита), цифр, "-", "_" и "."
// выбрасывается. Имя без основы ("$$.pdf") получает основу "file".
func ValidName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = invalidNameChars.ReplaceAllString(name, "")
	if strings.Trim(name, ".") == "" {
		return "file"
	}
	if strings.HasPrefix(name, ".") {
		name = "file" + name
	}
	return name
}

const maxNameAttempts = 100

// AvailableName возвращает свободный путь: если файл с таким именем уже есть,
// перед расширением добавляется "_" и 7 случайных символов.
func AvailableName(ctx context.Context, s Storage, name string) (string, error) {
	dir, file := path.Split(name)
	ext := path.Ext(file)
	root := strings.TrimSuffix(file, ext)

	candidate := name
	for i := 0; i < maxNameAttempts; i++ {
		exists, err := s.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
		candidate = dir + root + "_" + suffix + ext
	}
	return "", fmt.Errorf("storage: no free name for %s", name)
}

// cleanKey нормализует ключ и не даёт выйти за пределы корня хранилища.
func cleanKey(p string) (string, error) {
	if p == "" || strings.Contains(p, `\`) {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + p)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func joinURL(base, p string) string {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(segments, "/")
}
