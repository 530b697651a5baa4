package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfriedel/looksel/internal/domain"
)

// PostgresStore implements the scene store over a PostgreSQL pool, for
// deployments where several selection runs share one catalog.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database named by dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &domain.StoreError{Operation: "open", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.StoreError{Operation: "open", Err: fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)}
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS footprints (
	id          TEXT PRIMARY KEY,
	strip_id    TEXT,
	instrument  TEXT,
	acquired    TIMESTAMPTZ,
	geometry    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stereo_pairs (
	id1         TEXT NOT NULL,
	id2         TEXT NOT NULL,
	pair_id     TEXT NOT NULL,
	metric_kind TEXT NOT NULL,
	metric      DOUBLE PRECISION NOT NULL,
	days_window TEXT,
	geometry    TEXT NOT NULL,
	UNIQUE (id1, id2)
);

CREATE TABLE IF NOT EXISTS multilook_groups (
	pairname   TEXT PRIMARY KEY,
	anchor_id  TEXT NOT NULL,
	pair_count INTEGER NOT NULL,
	area       DOUBLE PRECISION NOT NULL,
	geometry   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_footprints_strip ON footprints (strip_id);
CREATE INDEX IF NOT EXISTS idx_pairs_id1 ON stereo_pairs (id1);
CREATE INDEX IF NOT EXISTS idx_groups_anchor ON multilook_groups (anchor_id);
`

// Migrate creates the catalog schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return &domain.StoreError{Operation: "migrate", Err: err}
	}
	return nil
}

// InsertFootprints stores footprints, skipping ids already present.
func (s *PostgresStore) InsertFootprints(ctx context.Context, footprints []domain.Footprint) (int, error) {
	batch := &pgx.Batch{}
	for i := range footprints {
		fp := &footprints[i]
		geom, err := encodeGeometry(fp.Geometry)
		if err != nil {
			return 0, &domain.StoreError{Operation: "insert", Table: "footprints", Err: err}
		}
		var acquired interface{}
		if !fp.Acquired.IsZero() {
			acquired = fp.Acquired.UTC()
		}
		batch.Queue(`
			INSERT INTO footprints (id, strip_id, instrument, acquired, geometry)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			fp.ID, fp.StripID, fp.Instrument, acquired, geom)
	}
	return s.sendBatch(ctx, batch, "footprints")
}

// Footprints returns every stored footprint, ordered by id.
func (s *PostgresStore) Footprints(ctx context.Context) ([]domain.Footprint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, strip_id, instrument, acquired, geometry FROM footprints ORDER BY id`)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "footprints", Err: err}
	}
	defer rows.Close()

	return scanPgFootprints(rows)
}

// FootprintsByIDs returns stored footprints matching the given ids.
func (s *PostgresStore) FootprintsByIDs(ctx context.Context, ids []string) ([]domain.Footprint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, strip_id, instrument, acquired, geometry FROM footprints WHERE id = ANY($1) ORDER BY id`,
		ids)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "footprints", Err: err}
	}
	defer rows.Close()

	return scanPgFootprints(rows)
}

// InsertPairs stores stereo pairs, skipping existing (id1, id2) rows.
func (s *PostgresStore) InsertPairs(ctx context.Context, pairs []domain.OverlapPair) (int, error) {
	batch := &pgx.Batch{}
	for i := range pairs {
		p := &pairs[i]
		geom, err := encodeGeometry(p.Geometry)
		if err != nil {
			return 0, &domain.StoreError{Operation: "insert", Table: "stereo_pairs", Err: err}
		}
		var window interface{}
		if !p.DateWindow.IsZero() {
			window = p.DateWindow.String()
		}
		batch.Queue(`
			INSERT INTO stereo_pairs (id1, id2, pair_id, metric_kind, metric, days_window, geometry)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id1, id2) DO NOTHING`,
			p.ID1, p.ID2, p.Pairname(), string(p.MetricKind), p.Metric, window, geom)
	}
	return s.sendBatch(ctx, batch, "stereo_pairs")
}

// InsertGroups stores multilook groups, skipping existing pairnames.
func (s *PostgresStore) InsertGroups(ctx context.Context, groups []domain.MultilookGroup) (int, error) {
	batch := &pgx.Batch{}
	for i := range groups {
		g := &groups[i]
		geom, err := encodeGeometry(g.Geometry)
		if err != nil {
			return 0, &domain.StoreError{Operation: "insert", Table: "multilook_groups", Err: err}
		}
		batch.Queue(`
			INSERT INTO multilook_groups (pairname, anchor_id, pair_count, area, geometry)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (pairname) DO NOTHING`,
			g.Pairname, g.AnchorID(), g.PairCount, g.Area, geom)
	}
	return s.sendBatch(ctx, batch, "multilook_groups")
}

// Pairs returns every stored stereo pair, ordered by (id1, id2).
func (s *PostgresStore) Pairs(ctx context.Context) ([]domain.OverlapPair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id1, id2, metric_kind, metric, days_window, geometry FROM stereo_pairs ORDER BY id1, id2`)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "stereo_pairs", Err: err}
	}
	defer rows.Close()

	var pairs []domain.OverlapPair
	for rows.Next() {
		var p domain.OverlapPair
		var kind, geom string
		var window *string
		if err := rows.Scan(&p.ID1, &p.ID2, &kind, &p.Metric, &window, &geom); err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "stereo_pairs", Err: err}
		}
		p.MetricKind = domain.MetricKind(kind)
		if window != nil {
			if w, err := domain.ParseDateWindow(*window); err == nil {
				p.DateWindow = w
			}
		}
		if p.Geometry, err = decodeGeometry(geom); err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "stereo_pairs", Err: err}
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "stereo_pairs", Err: err}
	}
	return pairs, nil
}

// Groups returns every stored multilook group, ordered by pairname.
func (s *PostgresStore) Groups(ctx context.Context) ([]domain.MultilookGroup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pairname, pair_count, area, geometry FROM multilook_groups ORDER BY pairname`)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "multilook_groups", Err: err}
	}
	defer rows.Close()

	var groups []domain.MultilookGroup
	for rows.Next() {
		var pairname, geom string
		var count int
		var area float64
		if err := rows.Scan(&pairname, &count, &area, &geom); err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "multilook_groups", Err: err}
		}
		geometry, err := decodeGeometry(geom)
		if err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "multilook_groups", Err: err}
		}
		groups = append(groups, domain.NewMultilookGroup(domain.SplitPairname(pairname), geometry, area))
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "multilook_groups", Err: err}
	}
	return groups, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// sendBatch executes a queued insert batch and sums the affected rows.
func (s *PostgresStore) sendBatch(ctx context.Context, batch *pgx.Batch, table string) (int, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	inserted := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: table, Err: err}
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// scanPgFootprints reads footprint rows from a pgx result set.
func scanPgFootprints(rows pgx.Rows) ([]domain.Footprint, error) {
	var footprints []domain.Footprint
	for rows.Next() {
		var fp domain.Footprint
		var strip, instrument *string
		var acquired *time.Time
		var geom string
		if err := rows.Scan(&fp.ID, &strip, &instrument, &acquired, &geom); err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "footprints", Err: err}
		}
		if strip != nil {
			fp.StripID = *strip
		}
		if instrument != nil {
			fp.Instrument = *instrument
		}
		if acquired != nil {
			fp.Acquired = acquired.UTC()
		}
		geometry, err := decodeGeometry(geom)
		if err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "footprints", Err: err}
		}
		fp.Geometry = geometry
		footprints = append(footprints, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "footprints", Err: err}
	}
	return footprints, nil
}
