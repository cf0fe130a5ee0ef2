// Package migration runs and tracks schema migrations.
//
// Migrations register themselves from init() in database/migrations:
//
//	func init() {
//	    migration.Register("20250101000000_create_products_table", &CreateProductsTable{})
//	}
//
// and are applied by the CLI (solestore migrate) or on server boot.
package migration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/solestore/solestore/pkg/logger"
)

// Migration is a reversible schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "solestore_migrations" }

// ── Registry ──

type registeredMigration struct {
	name string
	m    Migration
}

var registry []registeredMigration

// Register adds a migration. name must sort chronologically, e.g.
// "20250101000000_create_products_table".
func Register(name string, m Migration) {
	registry = append(registry, registeredMigration{name: name, m: m})
}

func sortedRegistry() []registeredMigration {
	out := append([]registeredMigration(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ── Runner ──

// Status is one row of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner applies and tracks migrations. Progress lines go to out.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&migrationRecord{})
}

func (r *Runner) ran(ctx context.Context) (map[string]migrationRecord, error) {
	var rows []migrationRecord
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]migrationRecord, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Run applies every pending migration as one batch and returns how many ran.
func (r *Runner) Run(ctx context.Context) (int, error) {
	if err := r.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}

	done, err := r.ran(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: fetch ran: %w", err)
	}

	var pending []registeredMigration
	for _, reg := range sortedRegistry() {
		if _, ok := done[reg.name]; !ok {
			pending = append(pending, reg)
		}
	}

	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, err
	}
	batch++

	db := r.db.WithContext(ctx)
	for _, reg := range pending {
		logger.Info("migration: running", "name", reg.name)

		if err := reg.m.Up(db); err != nil {
			return 0, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := db.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error; err != nil {
			return 0, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}

		fmt.Fprintf(r.out, "Migrated: %s\n", reg.name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses every migration of the most recent batch.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	if err := r.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	db := r.db.WithContext(ctx)

	var records []migrationRecord
	if err := db.Where("batch = ?", batch).Order("id desc").Find(&records).Error; err != nil {
		return 0, fmt.Errorf("migration: load batch %d: %w", batch, err)
	}

	known := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		known[reg.name] = reg.m
	}

	for _, rec := range records {
		m, ok := known[rec.Name]
		if !ok {
			return 0, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}

		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(db); err != nil {
			return 0, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := db.Delete(&rec).Error; err != nil {
			return 0, fmt.Errorf("migration: forget %s: %w", rec.Name, err)
		}

		fmt.Fprintf(r.out, "Rolled back: %s\n", rec.Name)
	}
	return len(records), nil
}

// Status reports every registered migration in name order.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	done, err := r.ran(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: fetch ran: %w", err)
	}

	var out []Status
	for _, reg := range sortedRegistry() {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

// PrintStatus writes Status as a table to the runner's output.
func (r *Runner) PrintStatus(ctx context.Context) error {
	rows, err := r.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%-50s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 68))
	for _, s := range rows {
		if s.Ran {
			fmt.Fprintf(r.out, "%-50s  %-8s  %d\n", s.Name, "Ran", s.Batch)
		} else {
			fmt.Fprintf(r.out, "%-50s  %-8s  -\n", s.Name, "Pending")
		}
	}
	return nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var row struct{ Max int }
	err := r.db.WithContext(ctx).Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&row).Error
	if err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return row.Max, nil
}
