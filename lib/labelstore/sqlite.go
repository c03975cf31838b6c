// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package labelstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bslabeler/labeler/lib/label"
	"github.com/bslabeler/labeler/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS labels (
	id  INTEGER PRIMARY KEY,
	src TEXT NOT NULL,
	uri TEXT NOT NULL,
	cid TEXT,
	val TEXT NOT NULL,
	neg INTEGER NOT NULL DEFAULT 0,
	cts TEXT NOT NULL,
	exp TEXT,
	sig BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_labels_uri ON labels(uri);
CREATE INDEX IF NOT EXISTS idx_labels_src ON labels(src);
`

// SQLiteStore is the reference [Store] implementation, a single
// append-only table backed by lib/sqlitepool.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

// Open opens (creating if absent) the sqlite database at path.
// Init must still be called before the store accepts traffic.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: 4,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("labelstore: %w", err)
	}
	return &SQLiteStore{pool: pool}, nil
}

// Init creates the labels table and its indexes if they do not
// already exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("labelstore: init: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("labelstore: creating schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

// Append inserts l and returns its assigned id.
func (s *SQLiteStore) Append(ctx context.Context, l *label.Label) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("labelstore: append: %w", err)
	}
	defer s.pool.Put(conn)

	var cid, exp any
	if l.Cid != "" {
		cid = l.Cid
	}
	if l.Exp != "" {
		exp = l.Exp
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO labels (src, uri, cid, val, neg, cts, exp, sig) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{l.Src, l.Uri, cid, l.Val, boolToInt(l.Neg), l.Cts, exp, l.Sig},
		})
	if err != nil {
		return 0, fmt.Errorf("labelstore: append: %w", err)
	}

	return conn.LastInsertRowID(), nil
}

// Query returns stored labels matching params, ordered by ascending
// id.
func (s *SQLiteStore) Query(ctx context.Context, params QueryParams) ([]StoredLabel, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("labelstore: query: %w", err)
	}
	defer s.pool.Put(conn)

	var conditions []string
	var args []any

	if len(params.URIPatterns) > 0 {
		var uriConds []string
		skip := false
		for _, pattern := range params.URIPatterns {
			like, matchAll, err := TranslateURIPattern(pattern)
			if err != nil {
				return nil, err
			}
			if matchAll {
				skip = true
				break
			}
			uriConds = append(uriConds, fmt.Sprintf("uri LIKE ? ESCAPE '%s'", likeEscape))
			args = append(args, like)
		}
		if !skip && len(uriConds) > 0 {
			conditions = append(conditions, "("+strings.Join(uriConds, " OR ")+")")
		}
	}

	if len(params.Sources) > 0 {
		placeholders := make([]string, len(params.Sources))
		for i, src := range params.Sources {
			placeholders[i] = "?"
			args = append(args, src)
		}
		conditions = append(conditions, "src IN ("+strings.Join(placeholders, ", ")+")")
	}

	if params.AfterID > 0 {
		conditions = append(conditions, "id > ?")
		args = append(args, params.AfterID)
	}

	query := "SELECT id, src, uri, cid, val, neg, cts, exp, sig FROM labels"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, params.Limit)

	var results []StoredLabel
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stored, err := scanStoredLabel(stmt)
			if err != nil {
				return err
			}
			results = append(results, stored)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("labelstore: query: %w", err)
	}
	return results, nil
}

// Scan streams every stored label with id > afterID in ascending id
// order.
func (s *SQLiteStore) Scan(ctx context.Context, afterID int64, fn func(StoredLabel) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("labelstore: scan: %w", err)
	}
	defer s.pool.Put(conn)

	var fnErr error
	err = sqlitex.Execute(conn,
		"SELECT id, src, uri, cid, val, neg, cts, exp, sig FROM labels WHERE id > ? ORDER BY id ASC",
		&sqlitex.ExecOptions{
			Args: []any{afterID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stored, err := scanStoredLabel(stmt)
				if err != nil {
					return err
				}
				if err := fn(stored); err != nil {
					fnErr = err
					return err
				}
				return nil
			},
		})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("labelstore: scan: %w", err)
	}
	return nil
}

// MaxID returns the highest assigned id, or 0 if the store is empty.
func (s *SQLiteStore) MaxID(ctx context.Context) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("labelstore: maxid: %w", err)
	}
	defer s.pool.Put(conn)

	var maxID int64
	err = sqlitex.Execute(conn, "SELECT COALESCE(MAX(id), 0) FROM labels", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			maxID = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("labelstore: maxid: %w", err)
	}
	return maxID, nil
}

func scanStoredLabel(stmt *sqlite.Stmt) (StoredLabel, error) {
	stored := StoredLabel{
		ID: stmt.ColumnInt64(0),
		Label: label.Label{
			Src: stmt.ColumnText(1),
			Uri: stmt.ColumnText(2),
			Val: stmt.ColumnText(4),
			Neg: stmt.ColumnInt(5) != 0,
			Cts: stmt.ColumnText(6),
		},
	}
	if !stmt.ColumnIsNull(3) {
		stored.Cid = stmt.ColumnText(3)
	}
	if !stmt.ColumnIsNull(7) {
		stored.Exp = stmt.ColumnText(7)
	}
	stored.Sig = make([]byte, stmt.ColumnLen(8))
	stmt.ColumnBytes(8, stored.Sig)
	return stored, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
