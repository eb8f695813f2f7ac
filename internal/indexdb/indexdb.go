// Package indexdb keeps a queryable SQLite copy of the actor event journal.
// The journal stays the source of truth: the index drops events when its
// writer falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"actornet/internal/eventlog"
)

const batchSize = 256

type Index struct {
	db  *sql.DB
	log *logrus.Entry

	ch      chan eventlog.Event
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Int64
}

func Open(path string, log *logrus.Entry) (*Index, error) {
	if path == "" {
		return nil, errors.New("indexdb: empty db path")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &Index{
		db:  db,
		log: log.WithField("component", "indexdb"),
		ch:  make(chan eventlog.Event, 65536),
	}
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		idx.loop()
	}()
	return idx, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			kind TEXT NOT NULL,
			actor INTEGER NOT NULL,
			player INTEGER NOT NULL,
			amount REAL NOT NULL DEFAULT 0,
			weapon INTEGER NOT NULL DEFAULT 0,
			body_part INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record queues e for the writer goroutine without blocking.
func (idx *Index) Record(e eventlog.Event) {
	if idx == nil || idx.closed.Load() {
		return
	}
	select {
	case idx.ch <- e:
	default:
		idx.dropped.Add(1)
	}
}

// Dropped counts events lost because the queue was full.
func (idx *Index) Dropped() int64 {
	return idx.dropped.Load()
}

// Close stops accepting events, writes what is queued and closes the db.
func (idx *Index) Close() error {
	var err error
	idx.once.Do(func() {
		idx.closed.Store(true)
		close(idx.ch)
		idx.wg.Wait()
		err = idx.db.Close()
	})
	return err
}

func (idx *Index) loop() {
	batch := make([]eventlog.Event, 0, batchSize)
	for e := range idx.ch {
		batch = append(batch[:0], e)
	fill:
		for len(batch) < batchSize {
			select {
			case next, ok := <-idx.ch:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		if err := idx.insert(batch); err != nil {
			idx.log.WithError(err).WithField("events", len(batch)).Warn("[Index/loop] insert failed")
		}
	}
}

func (idx *Index) insert(batch []eventlog.Event) error {
	tx, err := idx.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO events(at,kind,actor,player,amount,weapon,body_part) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range batch {
		if _, err := stmt.Exec(e.Time.UTC().Format(time.RFC3339Nano), string(e.Kind), e.Actor, e.Player, e.Amount, e.Weapon, e.BodyPart); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Recent returns up to limit events, newest first. actor < 0 matches every
// actor.
func (idx *Index) Recent(ctx context.Context, actor, limit int) ([]eventlog.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT at,kind,actor,player,amount,weapon,body_part FROM events`
	args := []any{}
	if actor >= 0 {
		q += ` WHERE actor=?`
		args = append(args, actor)
	}
	q += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := idx.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	defer rows.Close()

	var out []eventlog.Event
	for rows.Next() {
		var (
			e    eventlog.Event
			at   string
			kind string
		)
		if err := rows.Scan(&at, &kind, &e.Actor, &e.Player, &e.Amount, &e.Weapon, &e.BodyPart); err != nil {
			return nil, fmt.Errorf("indexdb: %w", err)
		}
		e.Kind = eventlog.Kind(kind)
		if e.Time, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("indexdb: bad timestamp %q: %w", at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByKind tallies indexed events per kind.
func (idx *Index) CountByKind(ctx context.Context) (map[eventlog.Kind]int, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	defer rows.Close()
	out := map[eventlog.Kind]int{}
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("indexdb: %w", err)
		}
		out[eventlog.Kind(kind)] = n
	}
	return out, rows.Err()
}
