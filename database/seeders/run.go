// Package seeders loads sample data into the catalog store.
//
// A seeder registers itself from init():
//
//	func init() {
//	    seeders.Register("products", SeedProducts)
//	}
//
// and is run by `solestore seed` or the /init endpoint. Seeders write a
// plain-text progress log to out.
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gorm.io/gorm"
)

// SeederFunc seeds one part of the store.
type SeederFunc func(ctx context.Context, db *gorm.DB, out io.Writer) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder and stops on the first error.
func RunAll(ctx context.Context, db *gorm.DB, out io.Writer) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	for _, e := range current {
		if err := e.fn(ctx, db, out); err != nil {
			return fmt.Errorf("seeders: %s: %w", e.name, err)
		}
	}
	return nil
}
