package asset

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/solestore/solestore/pkg/storage"
)

// Publisher uploads finished artifacts to a storage disk.
type Publisher struct {
	Disk   storage.Disk
	Prefix string
}

func NewPublisher(disk storage.Disk, prefix string) *Publisher {
	return &Publisher{Disk: disk, Prefix: prefix}
}

// Key is the storage path for file: <prefix>/<basename>.
func (p *Publisher) Key(file string) string {
	return path.Join(p.Prefix, filepath.Base(file))
}

// Publish uploads file and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("asset: publish %s: %w", file, err)
	}
	defer f.Close()

	key := p.Key(file)
	if err := p.Disk.PutStream(ctx, key, f); err != nil {
		return "", fmt.Errorf("asset: publish %s: %w", file, err)
	}
	return p.Disk.URL(key), nil
}
