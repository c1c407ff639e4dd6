package pg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	for _, in := range []string{"", "pgx", "Postgres"} {
		d, err := DialectFor(in)
		require.NoError(t, err)
		assert.Equal(t, Postgres, d)
	}
	d, err := DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = DialectFor("oracle")
	assert.Error(t, err)
}

func TestBinder(t *testing.T) {
	b := Postgres.Binder()
	assert.Equal(t, "$1", b.Add("a"))
	assert.Equal(t, "$2", b.Add(2))
	assert.Equal(t, []any{"a", 2}, b.Args())

	s := SQLite.Binder()
	assert.Equal(t, "?", s.Add("a"))
	assert.Equal(t, "?", s.Add("b"))
	assert.Len(t, s.Args(), 2)
}

func TestClassifyPostgres(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
	}
	assert.Equal(t, UniqueViolation, Postgres.Classify(wrap("23505")))
	assert.Equal(t, ForeignKeyViolation, Postgres.Classify(wrap("23503")))
	assert.Equal(t, NoViolation, Postgres.Classify(wrap("42P01")))
	assert.Equal(t, NoViolation, Postgres.Classify(errors.New("boom")))
	assert.Equal(t, NoViolation, Postgres.Classify(nil))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "celestial.db?_pragma=foreign_keys(1)", sqliteDSN(""))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)", sqliteDSN("file:x.db?mode=rwc"))
	assert.Equal(t, "x.db?_pragma=foreign_keys(0)", sqliteDSN("x.db?_pragma=foreign_keys(0)"))
}
