package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"celestial/internal/catalog"
	"celestial/internal/pg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// migrated открывает базу и накатывает DDL каталога
func migrated(t *testing.T, cat *catalog.Catalog, o pg.Options) *pg.DB {
	t.Helper()
	ctx := context.Background()
	db, err := pg.Open(ctx, o)
	require.NoError(t, err)

	ddl, err := pg.GenerateDDL(cat)
	require.NoError(t, err)
	require.NoError(t, db.ApplyDDL(ctx, ddl, zap.NewNop()))
	return db
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreSuite{
		open: func(t *testing.T, cat *catalog.Catalog) *pg.DB {
			return migrated(t, cat, pg.Options{
				Driver: "sqlite",
				URL:    filepath.Join(t.TempDir(), "celestial.db"),
			})
		},
	})
}

// renamedDSL — те же сущности, но с другими таблицами и колонками
const renamedDSL = `module astro

entity Galaxy: table=galaxies_t
  GalaxyName: string key column=gname

entity Star: table=stars_t
  StarName: string key column=sname
  GalaxyName: ref[Galaxy] column=galaxy_ref

entity Planet: table=planets_t
  PlanetName: string key column=pname
  Radius: float
  Density: float
  RotationalPeriod: float
  StarName: ref[Star] required column=star_ref

entity LifeForms: table=lifeforms_t
  LFName: string key column=lf
  Classification: string column=kind
  DiscoveryDate: date column=found
  AverageLength: float column=avg_len
  PlanetName: ref[Planet] key on_delete=cascade column=planet_ref
`

func TestReportsFollowCatalogNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "astro.dsl"), []byte(renamedDSL), 0o644))
	cat, err := catalog.Load(dir, "")
	require.NoError(t, err)

	db := migrated(t, cat, pg.Options{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "renamed.db")})
	t.Cleanup(func() { _ = db.Close() })
	st := New(db, cat, zap.NewNop(), Options{ManyPlanetsThreshold: 1})
	ctx := context.Background()

	rows := []struct {
		entity string
		attrs  map[string]any
	}{
		{"Galaxy", map[string]any{"GalaxyName": "Andromeda"}},
		{"Star", map[string]any{"StarName": "Sun", "GalaxyName": "Andromeda"}},
		{"Planet", map[string]any{"PlanetName": "Earth", "StarName": "Sun"}},
		{"Planet", map[string]any{"PlanetName": "Mars", "StarName": "Sun"}},
		{"LifeForms", map[string]any{"LFName": "Human", "Classification": "Animal", "PlanetName": "Earth"}},
		{"LifeForms", map[string]any{"LFName": "Oak", "Classification": "Plant", "PlanetName": "Earth"}},
		{"LifeForms", map[string]any{"LFName": "Moss", "Classification": "Plant", "PlanetName": "Mars"}},
	}
	for _, r := range rows {
		e, err := st.entity(r.entity)
		require.NoError(t, err)
		require.NoError(t, st.insert(ctx, "test", e, r.attrs), r.entity)
	}

	counts, err := st.PlanetCountByStar(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StarPlanetCount{{StarName: "Sun", PlanetCount: 2}}, counts)

	many, err := st.StarsWithManyPlanets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StarPlanetCount{{StarName: "Sun", PlanetCount: 2}}, many)

	rich, err := st.BiologicallyRichPlanets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PlanetLifeformCount{{PlanetName: "Earth", LifeFormCount: 2}}, rich)

	all, err := st.PlanetsWithAllLifeformTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PlanetRef{{PlanetName: "Earth"}}, all)

	inGalaxy, err := st.LifeformsInGalaxy(ctx, "andromeda")
	require.NoError(t, err)
	assert.Len(t, inGalaxy, 3)
}

func TestReportsNeedDeclaredAttributes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "astro.dsl"), []byte(`module astro

entity Star: table=star
  StarName: string key

entity Planet: table=planet
  PlanetName: string key
`), 0o644))
	cat, err := catalog.Load(dir, "")
	require.NoError(t, err)
	st := New(nil, cat, zap.NewNop(), Options{})

	_, err = st.render(planetCountByStarSQL)
	assert.ErrorContains(t, err, "Planet.StarName")

	_, err = st.render(biologicallyRichPlanetsSQL)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
