package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
	"github.com/custodia-labs/sercha-integrity/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.BlobStore    = (*Store)(nil)
	_ driven.BlobRestorer = (*Store)(nil)
	_ driven.TrashReaper  = (*Store)(nil)
)

const trashDir = ".trash"

// Store implements driven.BlobStore on the local filesystem.
type Store struct {
	root  string
	trash bool
	now   func() time.Time
}

// NewStore creates a store rooted at root, creating the directory if needed.
func NewStore(root string, trash bool) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: blob root is empty", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &Store{root: root, trash: trash, now: time.Now}, nil
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// path resolves a key to a file path inside root.
func (s *Store) path(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || path.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, "../") || clean == trashDir || strings.HasPrefix(clean, trashDir+"/") {
		return "", fmt.Errorf("%w: invalid blob key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *Store) trashPath(key string) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, trashDir, filepath.FromSlash(path.Clean(key))), nil
}

// Exists reports whether a blob is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Stat returns blob metadata.
func (s *Store) Stat(_ context.Context, key string) (*domain.BlobInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if info.IsDir() {
		return nil, domain.ErrNotFound
	}
	return &domain.BlobInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Get reads a blob's content.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Put writes a blob through a temp file and rename.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return writeAtomic(p, data)
}

// Delete removes a blob, moving it to the trash when enabled.
func (s *Store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if !s.trash {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", key, err)
		}
		return nil
	}

	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	dir, err := s.trashPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating trash for %s: %w", key, err)
	}
	dest := filepath.Join(dir, strconv.FormatInt(s.now().UnixNano(), 10))
	if err := os.Rename(p, dest); err != nil {
		return fmt.Errorf("trashing %s: %w", key, err)
	}
	return nil
}

// Restore moves the most recently trashed version of key back in place.
func (s *Store) Restore(_ context.Context, key string) error {
	if !s.trash {
		return domain.ErrRestoreUnsupported
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	dir, err := s.trashPath(key)
	if err != nil {
		return err
	}
	versions, err := trashVersions(dir)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return domain.ErrNotFound
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("creating parent for %s: %w", key, err)
	}
	latest := filepath.Join(dir, strconv.FormatInt(versions[len(versions)-1], 10))
	if err := os.Rename(latest, p); err != nil {
		return fmt.Errorf("restoring %s: %w", key, err)
	}
	_ = os.Remove(dir) // only succeeds when empty
	return nil
}

// Reap deletes trashed versions older than grace and returns how many.
func (s *Store) Reap(ctx context.Context, grace time.Duration) (int, error) {
	if !s.trash {
		return 0, nil
	}
	root := filepath.Join(s.root, trashDir)
	cutoff := s.now().Add(-grace).UnixNano()
	reaped := 0
	var dirs []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if errors.Is(err, fs.ErrNotExist) {
			return filepath.SkipDir
		}
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != root {
				dirs = append(dirs, p)
			}
			return nil
		}
		stamp, perr := strconv.ParseInt(d.Name(), 10, 64)
		if perr != nil || stamp >= cutoff {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("reaping %s: %w", p, err)
		}
		reaped++
		return nil
	})
	if err != nil {
		return reaped, err
	}

	// Deepest first so parents empty out after children.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		_ = os.Remove(d)
	}
	return reaped, nil
}

func trashVersions(dir string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading trash: %w", err)
	}
	var versions []int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, err := strconv.ParseInt(e.Name(), 10, 64); err == nil {
			versions = append(versions, n)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func writeAtomic(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
