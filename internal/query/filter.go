package query

import (
	"fmt"
	"strings"

	"celestial/internal/catalog"
	"celestial/internal/dsl"
	"celestial/internal/pg"
)

// Condition — одно условие фильтра: атрибут, оператор, значение и связка
// с предыдущим условием (AND|OR; у первого условия игнорируется).
type Condition struct {
	Attribute   string `json:"attribute"`
	Operator    string `json:"operator"`
	Value       any    `json:"value"`
	Conjunction string `json:"conjunction,omitempty"`
}

type Filter struct {
	Conditions []Condition `json:"conditions"`
}

var operators = map[string]string{
	"=": "=", "eq": "=",
	"!=": "<>", "<>": "<>", "ne": "<>",
	"<": "<", "lt": "<",
	"<=": "<=", "lte": "<=",
	">": ">", "gt": ">",
	">=": ">=", "gte": ">=",
	"like": "LIKE",
	"in":   "IN",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Compile превращает условия в WHERE-выражение с bind-параметрами.
// Атрибуты проверяются по объявлению сущности, значения приводятся к типу
// атрибута; текст запроса никогда не содержит пользовательских значений.
func Compile(cat *catalog.Catalog, e *dsl.Entity, conds []Condition, b *pg.Binder) (string, []catalog.FieldError) {
	var (
		sb   strings.Builder
		errs []catalog.FieldError
	)
	for i, cond := range conds {
		f, ok := e.Field(cond.Attribute)
		if !ok {
			errs = append(errs, catalog.Ferr(catalog.ErrUnknownField, cond.Attribute,
				fmt.Sprintf("%s has no attribute '%s'", e.Name, cond.Attribute)))
			continue
		}
		op, ok := operators[strings.ToLower(strings.TrimSpace(cond.Operator))]
		if !ok {
			errs = append(errs, catalog.Ferr("operator_invalid", f.Name,
				fmt.Sprintf("operator '%s' is not supported", cond.Operator)))
			continue
		}

		conj := "AND"
		if i > 0 {
			switch strings.ToUpper(strings.TrimSpace(cond.Conjunction)) {
			case "", "AND":
			case "OR":
				conj = "OR"
			default:
				errs = append(errs, catalog.Ferr("conjunction_invalid", f.Name,
					fmt.Sprintf("conjunction '%s' is not supported (AND|OR)", cond.Conjunction)))
				continue
			}
		}

		expr, err := compileOne(cat, f, op, cond.Value, b)
		if err != nil {
			errs = append(errs, catalog.Ferr(catalog.ErrTypeMismatch, f.Name, "Field '"+f.Name+"' "+err.Error()))
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" " + conj + " ")
		}
		sb.WriteString(expr)
	}
	if len(errs) > 0 {
		return "", errs
	}
	return sb.String(), nil
}

func compileOne(cat *catalog.Catalog, f dsl.Field, op string, raw any, b *pg.Binder) (string, error) {
	col := pg.Ident(f.Column())
	switch op {
	case "LIKE":
		s, err := catalog.ToString(raw)
		if err != nil {
			return "", err
		}
		if f.Type != "string" && f.Type != "enum" && f.Type != "ref" {
			return "", fmt.Errorf("does not support LIKE")
		}
		return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, col, b.Add("%"+likeEscaper.Replace(s)+"%")), nil
	case "IN":
		items, ok := raw.([]any)
		if !ok {
			items = []any{raw}
		}
		if len(items) == 0 {
			return "", fmt.Errorf("IN requires at least one value")
		}
		phs := make([]string, 0, len(items))
		for _, it := range items {
			v, err := cat.Coerce(f, it)
			if err != nil {
				return "", err
			}
			phs = append(phs, b.Add(v))
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(phs, ", ")), nil
	}

	v, err := cat.Coerce(f, raw)
	if err != nil {
		return "", err
	}
	if v == nil {
		switch op {
		case "=":
			return col + " IS NULL", nil
		case "<>":
			return col + " IS NOT NULL", nil
		}
		return "", fmt.Errorf("cannot compare NULL with %s", op)
	}
	return fmt.Sprintf("%s %s %s", col, op, b.Add(v)), nil
}

// OrderBy строит ORDER BY по объявленным атрибутам; неизвестные поля пропускаются
func OrderBy(e *dsl.Entity, keys []SortKey, nulls string) string {
	var parts []string
	for _, k := range keys {
		f, ok := e.Field(k.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		n := "NULLS LAST"
		if nulls == "first" {
			n = "NULLS FIRST"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", pg.Ident(f.Column()), dir, n))
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// Project отбирает атрибуты из allow-list сущности; пустой результат — все атрибуты
func Project(e *dsl.Entity, attrs []string) []dsl.Field {
	var out []dsl.Field
	seen := map[string]bool{}
	for _, a := range attrs {
		f, ok := e.Field(a)
		if !ok || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return append([]dsl.Field(nil), e.Fields...)
	}
	return out
}
