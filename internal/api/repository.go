package api

import (
	"context"

	"celestial/internal/catalog"
	"celestial/internal/query"
	"celestial/internal/store"
)

// Repository — всё, что хендлерам нужно от слоя данных; реализуется *store.Store
type Repository interface {
	Catalog() *catalog.Catalog
	Ping(ctx context.Context) error

	InsertPlanet(ctx context.Context, p store.Planet) error
	Update(ctx context.Context, entity string, keys, values map[string]any) error
	UpdateStar(ctx context.Context, st store.Star) error
	DeleteLifeform(ctx context.Context, name string) error

	ReadAll(ctx context.Context, entity string, lp query.ListParams) []store.Row
	Select(ctx context.Context, entity string, f query.Filter) ([]store.Row, error)
	Project(ctx context.Context, entity string, attrs []string) ([]store.Row, error)

	LifeformsInGalaxy(ctx context.Context, galaxy string) ([]store.LifeformInGalaxy, error)
	PlanetCountByStar(ctx context.Context) ([]store.StarPlanetCount, error)
	StarsWithManyPlanets(ctx context.Context) ([]store.StarPlanetCount, error)
	BiologicallyRichPlanets(ctx context.Context) ([]store.PlanetLifeformCount, error)
	PlanetsWithAllLifeformTypes(ctx context.Context) ([]store.PlanetRef, error)
}

var _ Repository = (*store.Store)(nil)
