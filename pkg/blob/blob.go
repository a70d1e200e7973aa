// Package blob stores the files referenced by file and image columns.
//
// A column value names a file under <root>/<table>/<column>/. Store
// implements query.FileStore, so statements remove files their rows no
// longer reference.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yanadb/yanaq/pkg/query"
)

// ErrInvalidName is returned for column values that are not plain file names.
var ErrInvalidName = errors.New("invalid file name")

// IsInvalidNameErr reports whether err is or wraps ErrInvalidName.
func IsInvalidNameErr(err error) bool {
	return errors.Is(err, ErrInvalidName)
}

// Store is a directory of files keyed by table, column and value.
type Store struct {
	fs     afero.Fs
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger logs stored and removed files at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store rooted at dir on the local filesystem.
func New(dir string, opts ...Option) *Store {
	return NewFs(afero.NewBasePathFs(afero.NewOsFs(), filepath.Clean(dir)), opts...)
}

// NewFs creates a store on an arbitrary filesystem.
func NewFs(fsys afero.Fs, opts ...Option) *Store {
	s := &Store{fs: fsys, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes r under a new unique name that keeps the extension of name,
// and returns the value to store in the column.
func (s *Store) Save(ctx context.Context, table, column, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value := uuid.NewString() + strings.ToLower(path.Ext(name))
	p, err := s.path(table, column, value)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s.%s: %w", table, column, err)
	}
	if err := afero.WriteReader(s.fs, p, r); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	s.logger.Debug("stored file", zap.String("path", p))
	return value, nil
}

// Open opens the file a column value names.
func (s *Store) Open(ctx context.Context, table, column, value string) (afero.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(table, column, value)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(p)
}

// Exists reports whether the file a column value names is present.
func (s *Store) Exists(table, column, value string) (bool, error) {
	p, err := s.path(table, column, value)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

// Remove deletes the file a column value names. A file that is already
// gone is not an error.
func (s *Store) Remove(ctx context.Context, table, column, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(table, column, value)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove %s: %w", p, err)
	}
	s.logger.Debug("removed file", zap.String("path", p))
	return nil
}

func (s *Store) path(table, column, value string) (string, error) {
	for _, part := range []string{table, column, value} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, part)
		}
	}
	return path.Join(strings.ToLower(table), strings.ToLower(column), value), nil
}

// Ensure Store implements query.FileStore.
var _ query.FileStore = (*Store)(nil)
