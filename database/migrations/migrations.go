// Package migrations holds the catalog schema. Every file registers its
// migrations from init(); import this package for its side effects wherever
// a migration.Runner is used.
package migrations
