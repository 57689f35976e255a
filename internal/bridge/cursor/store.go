// Package cursor persists each direction's watcher progress (the last
// scanned source-chain block/slot) across process restarts, grounded on
// universalClient/db's GORM-over-SQLite wrapper (db.go's openSQLite,
// schema auto-migration, and WAL pragmas) and universalClient/store's
// single-state-row-per-scope model convention.
package cursor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// inMemoryDSN mirrors db.InMemorySQLiteDSN for test use.
const inMemoryDSN = ":memory:"

// directionState is the sole persisted row per direction: one record keyed
// by Direction, tracking the last source block/slot the watcher has fully
// scanned (spec.md §4.1's "durable, monotonic watcher cursor").
type directionState struct {
	gorm.Model
	Direction   string `gorm:"uniqueIndex"`
	LastScanned uint64
}

// Store wraps a GORM SQLite handle scoped to one relayer process's cursor
// state (all configured directions share one file, distinguished by the
// Direction column, unlike the teacher's one-database-per-chain layout —
// the relayer tracks far fewer, longer-lived rows than a multi-chain
// validator does, so a single small database suffices).
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the cursor database at path, auto-migrating its
// schema, in the teacher's db.go style. path == ":memory:" opens an
// ephemeral, single-connection database for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn != inMemoryDSN && !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&cache=shared&mode=rwc"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "cursor: open sqlite database")
	}

	if err := db.AutoMigrate(&directionState{}); err != nil {
		return nil, errors.Wrap(err, "cursor: auto-migrate schema")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "cursor: get underlying sql.DB")
	}
	if dsn == inMemoryDSN {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetMaxIdleConns(4)
	}

	return &Store{db: db}, nil
}

// LastScanned returns the last fully-scanned block/slot for direction, or
// (0, false) if no cursor has been recorded yet (the direction runner then
// starts scanning from block/slot 1).
func (s *Store) LastScanned(direction string) (uint64, bool, error) {
	var row directionState
	err := s.db.Where("direction = ?", direction).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cursor: lookup %s: %w", direction, err)
	}
	return row.LastScanned, true, nil
}

// Advance persists the new last-scanned block/slot for direction,
// upserting the single row for that direction.
func (s *Store) Advance(direction string, lastScanned uint64) error {
	row := directionState{Direction: direction, LastScanned: lastScanned}
	return s.db.Where("direction = ?", direction).
		Assign(directionState{LastScanned: lastScanned}).
		FirstOrCreate(&row).Error
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "cursor: get underlying sql.DB")
	}
	return sqlDB.Close()
}
