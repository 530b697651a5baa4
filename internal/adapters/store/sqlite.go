// Package store provides the persistent scene catalog backends.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mfriedel/looksel/internal/domain"
)

// SQLiteStore implements the scene store over a local SQLite file.
// Geometries are stored as GeoJSON text, which keeps the file portable
// and inspectable without spatial extensions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a catalog database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &domain.StoreError{Operation: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.StoreError{Operation: "open", Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS footprints (
	id          TEXT PRIMARY KEY,
	strip_id    TEXT,
	instrument  TEXT,
	acquired    TEXT,
	geometry    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stereo_pairs (
	id1         TEXT NOT NULL,
	id2         TEXT NOT NULL,
	pair_id     TEXT NOT NULL,
	metric_kind TEXT NOT NULL,
	metric      REAL NOT NULL,
	days_window TEXT,
	geometry    TEXT NOT NULL,
	UNIQUE (id1, id2)
);

CREATE TABLE IF NOT EXISTS multilook_groups (
	pairname   TEXT PRIMARY KEY,
	anchor_id  TEXT NOT NULL,
	pair_count INTEGER NOT NULL,
	area       REAL NOT NULL,
	geometry   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_footprints_strip ON footprints (strip_id);
CREATE INDEX IF NOT EXISTS idx_pairs_id1 ON stereo_pairs (id1);
CREATE INDEX IF NOT EXISTS idx_groups_anchor ON multilook_groups (anchor_id);
`

// Migrate creates the catalog schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return &domain.StoreError{Operation: "migrate", Err: err}
	}
	return nil
}

// InsertFootprints stores footprints, skipping ids already present.
func (s *SQLiteStore) InsertFootprints(ctx context.Context, footprints []domain.Footprint) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "footprints", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO footprints (id, strip_id, instrument, acquired, geometry)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "footprints", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range footprints {
		fp := &footprints[i]
		geom, err := encodeGeometry(fp.Geometry)
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: "footprints", Err: err}
		}
		result, err := stmt.ExecContext(ctx, fp.ID, fp.StripID, fp.Instrument, encodeTime(fp.Acquired), geom)
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: "footprints", Err: err}
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "footprints", Err: err}
	}
	return inserted, nil
}

// Footprints returns every stored footprint, ordered by id.
func (s *SQLiteStore) Footprints(ctx context.Context) ([]domain.Footprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, strip_id, instrument, acquired, geometry FROM footprints ORDER BY id`)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "footprints", Err: err}
	}
	defer func() { _ = rows.Close() }()

	return scanFootprints(rows)
}

// FootprintsByIDs returns stored footprints matching the given ids.
func (s *SQLiteStore) FootprintsByIDs(ctx context.Context, ids []string) ([]domain.Footprint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT id, strip_id, instrument, acquired, geometry FROM footprints WHERE id IN (%s) ORDER BY id`,
		placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "footprints", Err: err}
	}
	defer func() { _ = rows.Close() }()

	return scanFootprints(rows)
}

// InsertPairs stores stereo pairs, skipping existing (id1, id2) rows.
func (s *SQLiteStore) InsertPairs(ctx context.Context, pairs []domain.OverlapPair) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "stereo_pairs", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stereo_pairs (id1, id2, pair_id, metric_kind, metric, days_window, geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id1, id2) DO NOTHING`)
	if err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "stereo_pairs", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range pairs {
		p := &pairs[i]
		geom, err := encodeGeometry(p.Geometry)
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: "stereo_pairs", Err: err}
		}
		var window interface{}
		if !p.DateWindow.IsZero() {
			window = p.DateWindow.String()
		}
		result, err := stmt.ExecContext(ctx, p.ID1, p.ID2, p.Pairname(), string(p.MetricKind), p.Metric, window, geom)
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: "stereo_pairs", Err: err}
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "stereo_pairs", Err: err}
	}
	return inserted, nil
}

// InsertGroups stores multilook groups, skipping existing pairnames.
func (s *SQLiteStore) InsertGroups(ctx context.Context, groups []domain.MultilookGroup) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "multilook_groups", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO multilook_groups (pairname, anchor_id, pair_count, area, geometry)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (pairname) DO NOTHING`)
	if err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "multilook_groups", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range groups {
		g := &groups[i]
		geom, err := encodeGeometry(g.Geometry)
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: "multilook_groups", Err: err}
		}
		result, err := stmt.ExecContext(ctx, g.Pairname, g.AnchorID(), g.PairCount, g.Area, geom)
		if err != nil {
			return inserted, &domain.StoreError{Operation: "insert", Table: "multilook_groups", Err: err}
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.StoreError{Operation: "insert", Table: "multilook_groups", Err: err}
	}
	return inserted, nil
}

// Pairs returns every stored stereo pair, ordered by (id1, id2).
func (s *SQLiteStore) Pairs(ctx context.Context) ([]domain.OverlapPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id1, id2, metric_kind, metric, days_window, geometry FROM stereo_pairs ORDER BY id1, id2`)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "stereo_pairs", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var pairs []domain.OverlapPair
	for rows.Next() {
		var p domain.OverlapPair
		var kind string
		var window sql.NullString
		var geom string
		if err := rows.Scan(&p.ID1, &p.ID2, &kind, &p.Metric, &window, &geom); err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "stereo_pairs", Err: err}
		}
		p.MetricKind = domain.MetricKind(kind)
		if window.Valid {
			if w, err := domain.ParseDateWindow(window.String); err == nil {
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
func (s *SQLiteStore) Groups(ctx context.Context) ([]domain.MultilookGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pairname, pair_count, area, geometry FROM multilook_groups ORDER BY pairname`)
	if err != nil {
		return nil, &domain.StoreError{Operation: "select", Table: "multilook_groups", Err: err}
	}
	defer func() { _ = rows.Close() }()

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

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanFootprints reads footprint rows from either backend's result set.
func scanFootprints(rows *sql.Rows) ([]domain.Footprint, error) {
	var footprints []domain.Footprint
	for rows.Next() {
		var fp domain.Footprint
		var acquired sql.NullString
		var geom string
		if err := rows.Scan(&fp.ID, &fp.StripID, &fp.Instrument, &acquired, &geom); err != nil {
			return nil, &domain.StoreError{Operation: "scan", Table: "footprints", Err: err}
		}
		if acquired.Valid && acquired.String != "" {
			t, err := time.Parse(time.RFC3339, acquired.String)
			if err != nil {
				return nil, &domain.StoreError{Operation: "scan", Table: "footprints", Err: err}
			}
			fp.Acquired = t
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

// encodeGeometry renders a geometry as GeoJSON text.
func encodeGeometry(g orb.Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("nil geometry")
	}
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeGeometry parses GeoJSON geometry text.
func decodeGeometry(text string) (orb.Geometry, error) {
	geom, err := geojson.UnmarshalGeometry([]byte(text))
	if err != nil {
		return nil, err
	}
	return geom.Geometry(), nil
}

// encodeTime renders a timestamp for storage, empty when zero.
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
