package api

import (
	"celestial/internal/catalog"
	"celestial/internal/dsl"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaEntityListItem struct {
	Module  string   `json:"module"`
	Entity  string   `json:"entity"`
	Table   string   `json:"table"`
	Aliases []string `json:"aliases,omitempty"`
	Keys    []string `json:"keys"`
}

// GET /meta
func MetaListHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ents := repo.Catalog().Entities()
		out := make([]metaEntityListItem, 0, len(ents))
		for _, e := range ents {
			out = append(out, metaEntityListItem{
				Module:  e.Module,
				Entity:  e.Name,
				Table:   e.Table(),
				Aliases: e.Aliases(),
				Keys:    fieldNames(e.Keys()),
			})
		}
		success(c, out)
	}
}

type metaField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Column   string   `json:"column"`
	Key      bool     `json:"key,omitempty"`
	Required bool     `json:"required,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	RefKey   string   `json:"refKey,omitempty"`
	OnDelete string   `json:"onDelete,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Catalog  string   `json:"catalog,omitempty"`
}

type metaEntity struct {
	Module      string         `json:"module"`
	Entity      string         `json:"entity"`
	Table       string         `json:"table"`
	Keys        []string       `json:"keys"`
	Fields      []metaField    `json:"fields"`
	Constraints map[string]any `json:"constraints,omitempty"` // {"unique":[["AtomicNumber"]]}
}

// GET /meta/:entity — всё, что нужно клиенту для построения формы
func MetaEntityHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat := repo.Catalog()
		e, found := cat.Resolve(c.Param("entity"))
		if !found {
			notFound(c, "Entity not found")
			return
		}
		success(c, describe(cat, e))
	}
}

func describe(cat *catalog.Catalog, e *dsl.Entity) metaEntity {
	fields := make([]metaField, 0, len(e.Fields))
	for _, f := range e.Fields {
		mf := metaField{
			Name:     f.Name,
			Type:     f.Type,
			Column:   f.Column(),
			Key:      f.IsKey(),
			Required: f.Required(),
			Enum:     append([]string(nil), f.Enum...),
			Catalog:  f.Catalog(),
		}
		if f.Type == "ref" {
			mf.Ref = f.RefTarget
			mf.OnDelete = f.Options["on_delete"]
			if mf.OnDelete == "" {
				mf.OnDelete = "restrict"
			}
			// цель ссылки: её ключ подсказывает, откуда брать значения для выпадающего списка
			if target, key, err := cat.RefKey(f); err == nil {
				mf.Ref = target.Name
				mf.RefKey = key.Name
			}
		}
		fields = append(fields, mf)
	}

	var constraints map[string]any
	if len(e.Constraints.Unique) > 0 {
		uniq := make([][]string, 0, len(e.Constraints.Unique))
		for _, set := range e.Constraints.Unique {
			uniq = append(uniq, append([]string(nil), set...))
		}
		constraints = map[string]any{"unique": uniq}
	}

	return metaEntity{
		Module:      e.Module,
		Entity:      e.Name,
		Table:       e.Table(),
		Keys:        fieldNames(e.Keys()),
		Fields:      fields,
		Constraints: constraints,
	}
}

// GET /meta/catalogs/:name
func MetaCatalogHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		dir, found := repo.Catalog().Enums[name]
		if !found {
			notFound(c, "Catalog not found")
			return
		}
		success(c, dir.Items)
	}
}

func fieldNames(fs []dsl.Field) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}
