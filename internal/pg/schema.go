package pg

import (
	"fmt"
	"strings"

	"celestial/internal/catalog"
	"celestial/internal/dsl"
)

type OnDeletePolicy string

const (
	OnDeleteRestrict OnDeletePolicy = "RESTRICT"
	OnDeleteSetNull  OnDeletePolicy = "SET NULL"
	OnDeleteCascade  OnDeletePolicy = "CASCADE"
)

// Ident — идентификатор в двойных кавычках (нижний регистр)
func Ident(s string) string {
	return `"` + strings.ReplaceAll(strings.ToLower(s), `"`, `""`) + `"`
}

func mapType(f dsl.Field) (string, error) {
	switch strings.ToLower(f.Type) {
	case "string", "enum":
		return "text", nil
	case "int":
		return "bigint", nil
	case "float":
		return "double precision", nil
	case "date":
		return "date", nil
	default:
		return "", fmt.Errorf("unknown type: %s", f.Type)
	}
}

func onDeletePolicy(f dsl.Field) OnDeletePolicy {
	switch strings.ToLower(strings.TrimSpace(f.Options["on_delete"])) {
	case "set_null":
		return OnDeleteSetNull
	case "cascade":
		return OnDeleteCascade
	default:
		return OnDeleteRestrict
	}
}

// GenerateDDL возвращает CREATE TABLE для всех сущностей каталога в порядке
// зависимостей: цель ссылки создаётся раньше ссылающейся таблицы, поэтому
// внешние ключи объявляются прямо в таблице (так умеют и postgres, и sqlite).
func GenerateDDL(c *catalog.Catalog) ([]string, error) {
	ordered, err := c.Ordered()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ordered))
	for _, e := range ordered {
		var cols, keys, tail []string
		for _, f := range e.Fields {
			typ := ""
			if f.Type == "ref" {
				_, key, err := c.RefKey(f)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", e.Name, f.Name, err)
				}
				if typ, err = mapType(key); err != nil {
					return nil, fmt.Errorf("%s.%s: %w", e.Name, f.Name, err)
				}
			} else if typ, err = mapType(f); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", e.Name, f.Name, err)
			}

			null := "null"
			if f.Required() {
				null = "not null"
			}
			cols = append(cols, fmt.Sprintf("%s %s %s", Ident(f.Column()), typ, null))
			if f.IsKey() {
				keys = append(keys, Ident(f.Column()))
			}
		}
		if len(keys) > 0 {
			tail = append(tail, fmt.Sprintf("constraint %s primary key (%s)",
				Ident(e.Table()+"_pk"), strings.Join(keys, ", ")))
		}

		for _, set := range e.Constraints.Unique {
			var parts []string
			for _, name := range set {
				f, ok := e.Field(name)
				if !ok {
					return nil, fmt.Errorf("%s: unique on unknown attribute %q", e.Name, name)
				}
				parts = append(parts, Ident(f.Column()))
			}
			idxName := e.Table() + "_" + strings.ToLower(strings.Join(set, "_")) + "_uq"
			tail = append(tail, fmt.Sprintf("constraint %s unique (%s)", Ident(idxName), strings.Join(parts, ", ")))
		}

		for _, f := range e.Fields {
			if f.Type != "ref" {
				continue
			}
			target, key, _ := c.RefKey(f)
			tail = append(tail, fmt.Sprintf("constraint %s foreign key (%s) references %s (%s) on delete %s",
				Ident(e.Table()+"_"+f.Column()+"_fk"),
				Ident(f.Column()),
				Ident(target.Table()), Ident(key.Column()),
				onDeletePolicy(f),
			))
		}

		out = append(out, fmt.Sprintf("create table if not exists %s (\n  %s\n)",
			Ident(e.Table()), strings.Join(append(cols, tail...), ",\n  ")))
	}
	return out, nil
}
