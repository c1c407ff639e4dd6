package pg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Violation — класс нарушения ограничения целостности
type Violation int

const (
	NoViolation Violation = iota
	UniqueViolation
	ForeignKeyViolation
)

// Dialect прячет различия postgres и sqlite: плейсхолдеры и коды ошибок
type Dialect struct {
	Name   string
	Driver string
}

var (
	Postgres = Dialect{Name: "postgres", Driver: "pgx"}
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
)

func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unknown db driver %q (allowed: pgx|sqlite)", driver)
	}
}

// Placeholder возвращает n-й (с 1) bind-параметр
func (d Dialect) Placeholder(n int) string {
	if d.Name == "sqlite" {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Binder накапливает аргументы и раздаёт плейсхолдеры по порядку
type Binder struct {
	d    Dialect
	args []any
}

func (d Dialect) Binder() *Binder { return &Binder{d: d} }

func (b *Binder) Add(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *Binder) Args() []any { return b.args }

// Classify распознаёт нарушения unique/PK и внешних ключей
func (d Dialect) Classify(err error) Violation {
	if err == nil {
		return NoViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return UniqueViolation
		case "23503":
			return ForeignKeyViolation
		}
		return NoViolation
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return UniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKeyViolation
		}
		// без extended result codes остаётся только текст
		msg := sqErr.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return UniqueViolation
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return ForeignKeyViolation
		}
	}
	return NoViolation
}
