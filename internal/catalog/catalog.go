// Package catalog resolves user-facing entity identifiers to declared
// entities and validates attribute payloads against their declarations.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"celestial/internal/dsl"
	"celestial/internal/reference"
)

type Catalog struct {
	byName map[string]*dsl.Entity // Entity.Name -> схема
	lookup map[string]*dsl.Entity // нормализованный id/alias -> схема
	Enums  map[string]reference.EnumDirectory
}

// New строит каталог; конфликт алиасов между сущностями — ошибка
func New(entities map[string]*dsl.Entity, enums map[string]reference.EnumDirectory) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]*dsl.Entity, len(entities)),
		lookup: make(map[string]*dsl.Entity, len(entities)*2),
		Enums:  enums,
	}
	if c.Enums == nil {
		c.Enums = map[string]reference.EnumDirectory{}
	}
	for _, e := range entities {
		if prev, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("entity %q declared in modules %q and %q", e.Name, prev.Module, e.Module)
		}
		c.byName[e.Name] = e
	}
	for _, e := range c.Entities() {
		ids := append([]string{e.Name, e.Table()}, e.Aliases()...)
		for _, id := range ids {
			n := Normalize(id)
			if n == "" {
				continue
			}
			if prev, ok := c.lookup[n]; ok && prev != e {
				return nil, fmt.Errorf("identifier %q maps to both %s and %s", id, prev.Name, e.Name)
			}
			c.lookup[n] = e
		}
	}
	return c, nil
}

// Load собирает каталог из встроенных описаний или из каталогов на диске.
func Load(dslDir, enumsDir string) (*Catalog, error) {
	var (
		entities map[string]*dsl.Entity
		enums    map[string]reference.EnumDirectory
		err      error
	)
	if strings.TrimSpace(dslDir) == "" {
		entities, err = dsl.LoadBuiltin()
	} else {
		entities, err = dsl.LoadAllEntities(dslDir)
	}
	if err != nil {
		return nil, fmt.Errorf("load dsl: %w", err)
	}
	if strings.TrimSpace(enumsDir) == "" {
		enums, err = reference.LoadBuiltin()
	} else {
		enums, err = reference.LoadEnumCatalog(enumsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("load enums: %w", err)
	}
	c, err := New(entities, enums)
	if err != nil {
		return nil, err
	}
	if issues := c.Lint(); len(issues) > 0 {
		return nil, fmt.Errorf("catalog has %d issue(s), first: %s.%s: %s",
			len(issues), issues[0].Entity, issues[0].Field, issues[0].Message)
	}
	return c, nil
}

// Normalize: регистр и разделители (пробел, '-', '_') не важны
func Normalize(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(id)) {
		switch r {
		case ' ', '\t', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolve находит сущность по имени, таблице или алиасу
func (c *Catalog) Resolve(id string) (*dsl.Entity, bool) {
	e, ok := c.lookup[Normalize(id)]
	return e, ok
}

// Entity — точное имя сущности (как в ref[...]); допускается "module.Name"
func (c *Catalog) Entity(name string) (*dsl.Entity, bool) {
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[i+1:]
	}
	e, ok := c.byName[name]
	return e, ok
}

// Entities — все сущности, отсортированные по имени
func (c *Catalog) Entities() []*dsl.Entity {
	out := make([]*dsl.Entity, 0, len(c.byName))
	for _, e := range c.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RefKey возвращает ключевой атрибут цели ссылки f
func (c *Catalog) RefKey(f dsl.Field) (*dsl.Entity, dsl.Field, error) {
	target, ok := c.Entity(f.RefTarget)
	if !ok {
		return nil, dsl.Field{}, fmt.Errorf("unknown ref target %q", f.RefTarget)
	}
	keys := target.Keys()
	if len(keys) != 1 {
		return nil, dsl.Field{}, fmt.Errorf("ref target %s must have exactly one key, has %d", target.Name, len(keys))
	}
	return target, keys[0], nil
}

// Ordered возвращает сущности так, что цели ссылок идут раньше ссылающихся
func (c *Catalog) Ordered() ([]*dsl.Entity, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.byName))
	var out []*dsl.Entity

	var visit func(e *dsl.Entity) error
	visit = func(e *dsl.Entity) error {
		switch state[e.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("reference cycle through %s", e.Name)
		}
		state[e.Name] = visiting
		for _, f := range e.Fields {
			if f.Type != "ref" {
				continue
			}
			target, ok := c.Entity(f.RefTarget)
			if !ok {
				return fmt.Errorf("%s.%s: unknown ref target %q", e.Name, f.Name, f.RefTarget)
			}
			if target == e {
				continue
			}
			if err := visit(target); err != nil {
				return err
			}
		}
		state[e.Name] = done
		out = append(out, e)
		return nil
	}

	for _, e := range c.Entities() {
		if err := visit(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}
