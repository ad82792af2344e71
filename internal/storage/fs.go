package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// FSStore keeps objects under root/<bucket>/<key> on the local disk.
type FSStore struct {
	root   string
	logger *slog.Logger
}

func NewFSStore(root string, logger *slog.Logger) (*FSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: storage root is required", common.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStore{root: abs, logger: logger}, nil
}

// Root returns the absolute storage directory.
func (s *FSStore) Root() string { return s.root }

// BucketDir returns the directory that backs bucket.
func (s *FSStore) BucketDir(bucket string) string { return filepath.Join(s.root, bucket) }

// EnsureBucket creates the bucket directory.
func (s *FSStore) EnsureBucket(_ context.Context, bucket string) error {
	if _, err := s.objectPath(bucket, "x"); err != nil {
		return err
	}
	if err := os.MkdirAll(s.BucketDir(bucket), 0o755); err != nil {
		return fsErr("create bucket", bucket, err)
	}
	return nil
}

func (s *FSStore) objectPath(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("%w: bad bucket %q", common.ErrInvalidInput, bucket)
	}
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	if clean == "/" {
		return "", fmt.Errorf("%w: bad key %q", common.ErrInvalidInput, key)
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func fsErr(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %s: %w", op, p, errors.Join(common.ErrNotFound, err))
	}
	return fmt.Errorf("%s %s: %w", op, p, errors.Join(common.ErrTransport, err))
}

func (s *FSStore) Download(_ context.Context, bucket, key, dst string) error {
	src, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return fsErr("open", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fsErr("create", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fsErr("copy", src, err)
	}
	if err := out.Close(); err != nil {
		return fsErr("close", dst, err)
	}
	s.logger.Debug("storage.download", "bucket", bucket, "key", key, "dst", dst)
	return nil
}

// PutJSON writes through a temp file and rename so readers never see a
// partial record.
func (s *FSStore) PutJSON(_ context.Context, bucket, key string, v any) error {
	dst, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	b, err := schema.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fsErr("mkdir", filepath.Dir(dst), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*.json")
	if err != nil {
		return fsErr("create temp", dst, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fsErr("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fsErr("close", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fsErr("rename", dst, err)
	}
	s.logger.Info("storage.put_json", "bucket", bucket, "key", key, "size_bytes", len(b))
	return nil
}

func (s *FSStore) GetJSON(_ context.Context, bucket, key string, v any) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return fsErr("read", p, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

// List returns keys under prefix ending in suffix, sorted. A missing
// bucket lists as empty.
func (s *FSStore) List(_ context.Context, bucket, prefix, suffix string) ([]string, error) {
	dir := s.BucketDir(bucket)
	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dir {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fsErr("list", dir, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FSStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fsErr("stat", p, err)
}

func (s *FSStore) Delete(_ context.Context, bucket, key string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsErr("delete", p, err)
	}
	return nil
}
