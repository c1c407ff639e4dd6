package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite (встроенный режим)
)

type Options struct {
	Driver          string // "pgx" | "sqlite"
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
}

// DB — явный дескриптор пула соединений. Создаётся один раз в main и
// передаётся в store/api; глобального состояния нет.
type DB struct {
	sql            *sql.DB
	dialect        Dialect
	acquireTimeout time.Duration
}

func Open(ctx context.Context, o Options) (*DB, error) {
	dialect, err := DialectFor(o.Driver)
	if err != nil {
		return nil, err
	}
	dsn := o.URL
	if dialect.Name == "sqlite" {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, err
	}

	maxOpen, maxIdle := o.MaxOpenConns, o.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if dialect.Name == "sqlite" {
		// один писатель; заодно pragma foreign_keys живёт на единственном соединении
		maxOpen, maxIdle = 1, 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	switch {
	case dialect.Name == "sqlite":
		// :memory: живёт ровно столько, сколько соединение
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	case o.ConnMaxLifetime > 0:
		db.SetConnMaxLifetime(o.ConnMaxLifetime)
	default:
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	acquire := o.AcquireTimeout
	if acquire <= 0 {
		acquire = 60 * time.Second
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{sql: db, dialect: dialect, acquireTimeout: acquire}, nil
}

// sqliteDSN включает внешние ключи для каждого нового соединения
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "celestial.db"
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Close закрывает пул; вызывается после остановки HTTP-сервера
func (db *DB) Close() error { return db.sql.Close() }

// ErrAcquireTimeout — свободного соединения не дождались за AcquireTimeout
var ErrAcquireTimeout = errors.New("pg: timed out waiting for a pooled connection")

// WithConn берёт одно соединение из пула, выполняет fn и всегда возвращает
// соединение обратно — и при успехе, и при ошибке.
func (db *DB) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) (err error) {
	actx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	conn, err := db.sql.Conn(actx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrAcquireTimeout
		}
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("release connection: %w", cerr)
		}
	}()
	return fn(ctx, conn)
}

// Stats — снимок состояния пула (для метрик)
func (db *DB) Stats() sql.DBStats { return db.sql.Stats() }
