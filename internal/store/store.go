// Package store is the data-access layer: it turns typed requests into
// parameterised SQL, runs each one on a single pooled connection and maps
// the rows back to records.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"celestial/internal/catalog"
	"celestial/internal/dsl"
	"celestial/internal/pg"

	"go.uber.org/zap"
)

type Options struct {
	// ManyPlanetsThreshold — звёзды с числом планет строго больше попадают в отчёт
	ManyPlanetsThreshold int
}

type Store struct {
	db   *pg.DB
	cat  *catalog.Catalog
	log  *zap.Logger
	opts Options
}

func New(db *pg.DB, cat *catalog.Catalog, log *zap.Logger, opts Options) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, cat: cat, log: log, opts: opts}
}

func (s *Store) Catalog() *catalog.Catalog { return s.cat }

// Ping проверяет, что из пула можно получить живое соединение
func (s *Store) Ping(ctx context.Context) error {
	return s.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// exec — один оператор изменения на одном соединении; возвращает RowsAffected
func (s *Store) exec(ctx context.Context, op, query string, args ...any) (n int64, err error) {
	done := instrument(op)
	defer func() { done(err) }()

	err = s.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		s.log.Debug("exec", zap.String("op", op), zap.String("sql", query), zap.Int("args", len(args)))
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return classify(s.db.Dialect(), err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// query — один SELECT на одном соединении; scan вызывается для каждой строки
func (s *Store) query(ctx context.Context, op, query string, args []any, scan func(*sql.Rows) error) (err error) {
	done := instrument(op)
	defer func() { done(err) }()

	return s.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		s.log.Debug("query", zap.String("op", op), zap.String("sql", query), zap.Int("args", len(args)))
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

func (s *Store) entity(name string) (*dsl.Entity, error) {
	e, ok := s.cat.Entity(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return e, nil
}

func (s *Store) resolve(id string) (*dsl.Entity, error) {
	e, ok := s.cat.Resolve(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	return e, nil
}
