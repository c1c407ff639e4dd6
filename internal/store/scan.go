package store

import (
	"context"
	"database/sql"
	"strings"

	"celestial/internal/dsl"
	"celestial/internal/pg"
)

// scanTarget подбирает nullable-приёмник по объявленному типу атрибута
func (s *Store) scanTarget(f dsl.Field) any {
	typ := f.Type
	if typ == "ref" {
		if _, key, err := s.cat.RefKey(f); err == nil {
			typ = key.Type
		}
	}
	switch typ {
	case "int":
		return new(sql.NullInt64)
	case "float":
		return new(sql.NullFloat64)
	case "date":
		return new(nullDate)
	default:
		return new(sql.NullString)
	}
}

func cellValue(target any) any {
	switch t := target.(type) {
	case *sql.NullInt64:
		if t.Valid {
			return t.Int64
		}
	case *sql.NullFloat64:
		if t.Valid {
			return t.Float64
		}
	case *nullDate:
		if t.Valid {
			return t.S
		}
	case *sql.NullString:
		if t.Valid {
			return t.String
		}
	}
	return nil
}

func columnList(fields []dsl.Field) string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, pg.Ident(f.Column()))
	}
	return strings.Join(cols, ", ")
}

// selectRows выполняет SELECT по объявленным колонкам и собирает Row
func (s *Store) selectRows(ctx context.Context, op string, fields []dsl.Field, sqlText string, args []any) ([]Row, error) {
	out := []Row{}
	err := s.query(ctx, op, sqlText, args, func(rows *sql.Rows) error {
		targets := make([]any, len(fields))
		for i, f := range fields {
			targets[i] = s.scanTarget(f)
		}
		if err := rows.Scan(targets...); err != nil {
			return err
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[i] = Cell{Name: f.Name, Value: cellValue(targets[i])}
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
