package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local is the local-filesystem driver. Writes land in a temp file first and
// are renamed into place, so readers never see half an artifact.
type Local struct {
	root    string
	baseURL string
}

// NewLocal roots a disk at root, made absolute against the working
// directory.
func NewLocal(root, baseURL string) (*Local, error) {
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *Local) abs(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(path))
}

func (d *Local) Put(ctx context.Context, path string, content []byte) error {
	return d.PutStream(ctx, path, bytes.NewReader(content))
}

func (d *Local) PutStream(ctx context.Context, path string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := d.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage/local: rename %s: %w", path, err)
	}
	return nil
}

func (d *Local) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(d.abs(path))
	if err != nil {
		return nil, fmt.Errorf("storage/local: get %s: %w", path, err)
	}
	return data, nil
}

func (d *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(d.abs(path))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage/local: stat %s: %w", path, err)
	}
	return true, nil
}

func (d *Local) Size(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(d.abs(path))
	if err != nil {
		return 0, fmt.Errorf("storage/local: size %s: %w", path, err)
	}
	return info.Size(), nil
}

func (d *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(d.abs(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", path, err)
	}
	return nil
}

func (d *Local) Files(_ context.Context, directory string) ([]string, error) {
	entries, err := os.ReadDir(d.abs(directory))
	if err != nil {
		return nil, fmt.Errorf("storage/local: files %s: %w", directory, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".put-") {
			out = append(out, filepath.ToSlash(filepath.Join(directory, e.Name())))
		}
	}
	return out, nil
}

func (d *Local) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}
