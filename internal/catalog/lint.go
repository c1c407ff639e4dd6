package catalog

import (
	"fmt"
	"strings"
)

type SchemaIssue struct {
	Entity  string `json:"entity"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lint проверяет базовые противоречия в описании каталога.
func (c *Catalog) Lint() []SchemaIssue {
	var issues []SchemaIssue
	add := func(entity, field, code, msg string) {
		issues = append(issues, SchemaIssue{Entity: entity, Field: field, Code: code, Message: msg})
	}

	for _, e := range c.Entities() {
		if len(e.Keys()) == 0 {
			add(e.Name, "", "no_key", "entity declares no key attribute")
		}
		seenCols := map[string]string{}
		for _, f := range e.Fields {
			col := f.Column()
			if prev, dup := seenCols[col]; dup {
				add(e.Name, f.Name, "column_clash", fmt.Sprintf("column %q already used by %s", col, prev))
			}
			seenCols[col] = f.Name

			od := strings.TrimSpace(strings.ToLower(f.Options["on_delete"]))
			switch od {
			case "", "restrict", "set_null", "cascade":
			default:
				add(e.Name, f.Name, "on_delete_unknown",
					fmt.Sprintf("unknown on_delete policy %q (allowed: restrict|set_null|cascade)", od))
			}

			if f.Type == "ref" {
				if strings.TrimSpace(f.RefTarget) == "" {
					add(e.Name, f.Name, "ref_target_empty", "ref field has empty RefTarget")
				} else if _, _, err := c.RefKey(f); err != nil {
					add(e.Name, f.Name, "ref_target_invalid", err.Error())
				}
				// обязательная ссылка + set_null — конфликт
				if f.Required() && od == "set_null" {
					add(e.Name, f.Name, "required_conflicts_on_delete",
						"required ref cannot have on_delete=set_null; use restrict (or make field optional)")
				}
			}

			if name := f.Catalog(); name != "" {
				if _, ok := c.Enums[name]; !ok {
					add(e.Name, f.Name, "catalog_unknown", fmt.Sprintf("reference catalog %q is not loaded", name))
				}
			}
		}
		for _, set := range e.Constraints.Unique {
			for _, name := range set {
				if _, ok := e.Field(name); !ok {
					add(e.Name, name, "unique_field_unknown", "unique constraint names an undeclared attribute")
				}
			}
		}
	}
	return issues
}
