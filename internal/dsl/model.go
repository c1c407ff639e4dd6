package dsl

import "strings"

// Entity описывает сущность каталога: таблицу, её колонки и ключи
type Entity struct {
	Name        string
	Module      string
	Options     map[string]string // table=, aliases=a|b
	Fields      []Field
	Constraints Constraints
}

type Constraints struct {
	Unique [][]string
}

// Field описывает атрибут сущности
type Field struct {
	Name      string
	Type      string            // string, int, float, date, enum, ref
	Enum      []string          // значения enum, если поле типа enum
	RefTarget string            // для ref[Entity]
	Options   map[string]string // key, required, column=, catalog=, on_delete=
}

// Table — физическое имя таблицы (table= или snake_case имени сущности)
func (e *Entity) Table() string {
	if t := strings.TrimSpace(e.Options["table"]); t != "" {
		return strings.ToLower(t)
	}
	return Snake(e.Name)
}

func (e *Entity) Aliases() []string {
	raw := strings.TrimSpace(e.Options["aliases"])
	if raw == "" {
		return nil
	}
	var out []string
	for _, a := range strings.Split(raw, "|") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Keys возвращает ключевые атрибуты в порядке объявления
func (e *Entity) Keys() []Field {
	var out []Field
	for _, f := range e.Fields {
		if f.IsKey() {
			out = append(out, f)
		}
	}
	return out
}

// Field ищет атрибут по имени без учёта регистра
func (e *Entity) Field(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

func (f Field) Column() string {
	if c := strings.TrimSpace(f.Options["column"]); c != "" {
		return strings.ToLower(c)
	}
	return Snake(f.Name)
}

func (f Field) IsKey() bool    { return f.Options["key"] == "true" }
func (f Field) Required() bool { return f.IsKey() || f.Options["required"] == "true" }
func (f Field) Catalog() string {
	return strings.TrimSpace(f.Options["catalog"])
}

// Snake: "PlanetName" -> "planet_name", "LFName" -> "lf_name"
func Snake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prev := rs[i-1]
			prevLower := (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9')
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			prevUpper := prev >= 'A' && prev <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
