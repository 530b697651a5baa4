package output

import (
	"context"

	"github.com/mfriedel/looksel/internal/domain"
)

// SceneStore defines the secondary port for the persistent scene catalog.
// Inserts are idempotent on each table's unique key, mirroring an upsert
// with conflicts ignored.
type SceneStore interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// InsertFootprints stores footprint records, skipping existing ids.
	// Returns the number of newly inserted rows.
	InsertFootprints(ctx context.Context, footprints []domain.Footprint) (int, error)

	// Footprints returns all stored footprint records.
	Footprints(ctx context.Context) ([]domain.Footprint, error)

	// FootprintsByIDs returns the footprints for the given ids. Missing ids
	// are omitted, not an error.
	FootprintsByIDs(ctx context.Context, ids []string) ([]domain.Footprint, error)

	// InsertPairs stores stereo pair rows, unique on (id1, id2).
	InsertPairs(ctx context.Context, pairs []domain.OverlapPair) (int, error)

	// InsertGroups stores multilook group rows, unique on pairname.
	InsertGroups(ctx context.Context, groups []domain.MultilookGroup) (int, error)

	// Pairs returns all stored stereo pairs.
	Pairs(ctx context.Context) ([]domain.OverlapPair, error)

	// Groups returns all stored multilook groups.
	Groups(ctx context.Context) ([]domain.MultilookGroup, error)

	// Close releases the underlying connection.
	Close() error
}
