package store

import (
	"context"
	"errors"
	"testing"

	"celestial/internal/catalog"
	"celestial/internal/pg"
	"celestial/internal/query"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// StoreSuite гоняет одни и те же сценарии на любом драйвере;
// open должен вернуть пустую базу со схемой каталога.
type StoreSuite struct {
	suite.Suite
	open func(t *testing.T, cat *catalog.Catalog) *pg.DB

	cat   *catalog.Catalog
	db    *pg.DB
	store *Store
	ctx   context.Context
}

func (s *StoreSuite) SetupSuite() {
	cat, err := catalog.Load("", "")
	s.Require().NoError(err)
	s.cat = cat
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = s.open(s.T(), s.cat)
	s.store = New(s.db, s.cat, zap.NewNop(), Options{ManyPlanetsThreshold: 2})
	s.Require().NoError(s.store.Seed(s.ctx))
}

func (s *StoreSuite) TearDownTest() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *StoreSuite) names(rows []Row, attr string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		v, ok := r.Get(attr)
		s.Require().True(ok, "row has no %s", attr)
		name, _ := v.(string)
		out = append(out, name)
	}
	return out
}

func (s *StoreSuite) TestSeedIsIdempotent() {
	s.Require().NoError(s.store.Seed(s.ctx))
	rows := s.store.ReadAll(s.ctx, "Planet", query.ListParams{})
	s.Len(rows, 4)
}

func (s *StoreSuite) TestInsertPlanet() {
	err := s.store.InsertPlanet(s.ctx, Planet{
		PlanetName: "Venus", Radius: 6051.8, Density: 5.24, RotationalPeriod: -5832.5, StarName: "Sun",
	})
	s.Require().NoError(err)

	rows, err := s.store.Select(s.ctx, "planets", query.Filter{Conditions: []query.Condition{
		{Attribute: "PlanetName", Operator: "=", Value: "Venus"},
	}})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	r, _ := rows[0].Get("Radius")
	s.Equal(6051.8, r)
	star, _ := rows[0].Get("StarName")
	s.Equal("Sun", star)
}

func (s *StoreSuite) TestInsertPlanetDuplicate() {
	err := s.store.InsertPlanet(s.ctx, Planet{PlanetName: "Earth", Radius: 1, Density: 1, RotationalPeriod: 1, StarName: "Sun"})
	s.Require().Error(err)
	s.True(errors.Is(err, ErrDuplicateKey), "got %v", err)
	s.Equal("DUPLICATE_KEY", Code(err))
}

func (s *StoreSuite) TestInsertPlanetMissingStar() {
	err := s.store.InsertPlanet(s.ctx, Planet{PlanetName: "Nowhere", Radius: 1, Density: 1, RotationalPeriod: 1, StarName: "Ghost"})
	s.Require().Error(err)
	s.True(errors.Is(err, ErrMissingReference), "got %v", err)
	s.Equal("MISSING_REFERENCE", Code(err))
}

func (s *StoreSuite) TestInsertPlanetValidation() {
	err := s.store.InsertPlanet(s.ctx, Planet{PlanetName: " ", Radius: 1, Density: 1, RotationalPeriod: 1})
	s.Require().Error(err)
	s.True(errors.Is(err, ErrValidation))

	var ve *ValidationError
	s.Require().True(errors.As(err, &ve))
	s.Len(ve.Fields, 2)
}

func (s *StoreSuite) TestUpdate() {
	err := s.store.Update(s.ctx, "moon-orbits",
		map[string]any{"MoonName": "Moon", "PlanetName": "Earth"},
		map[string]any{"OrbitDistance": "384399", "SurfaceGravity": 1.625})
	s.Require().NoError(err)

	rows, err := s.store.Select(s.ctx, "MoonOrbits", query.Filter{Conditions: []query.Condition{
		{Attribute: "MoonName", Operator: "=", Value: "Moon"},
	}})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	d, _ := rows[0].Get("OrbitDistance")
	s.Equal(384399.0, d)
	g, _ := rows[0].Get("SurfaceGravity")
	s.Equal(1.625, g)
}

func (s *StoreSuite) TestUpdateNotFound() {
	err := s.store.Update(s.ctx, "Star", map[string]any{"StarName": "Betelgeuse"}, map[string]any{"Age": 0.01})
	s.True(errors.Is(err, ErrNotFound), "got %v", err)
}

func (s *StoreSuite) TestUpdateRejectsBadAttributes() {
	err := s.store.Update(s.ctx, "Star", map[string]any{"Age": 1.0}, map[string]any{"StarName": "Sol"})
	s.True(errors.Is(err, ErrValidation), "got %v", err)

	err = s.store.Update(s.ctx, "Star", map[string]any{"StarName": "Sun"}, map[string]any{"Luminosity; DROP TABLE star": 1})
	s.True(errors.Is(err, ErrValidation), "got %v", err)

	err = s.store.Update(s.ctx, "Star", map[string]any{"StarName": "Sun"}, map[string]any{})
	s.True(errors.Is(err, ErrValidation), "got %v", err)

	err = s.store.Update(s.ctx, "Blackholes", map[string]any{"Name": "x"}, map[string]any{"Mass": 1})
	s.True(errors.Is(err, ErrUnknownEntity), "got %v", err)
}

func (s *StoreSuite) TestUpdateMissingReference() {
	err := s.store.Update(s.ctx, "Planet", map[string]any{"PlanetName": "Mars"}, map[string]any{"StarName": "Ghost"})
	s.True(errors.Is(err, ErrMissingReference), "got %v", err)
}

func (s *StoreSuite) TestUpdateStar() {
	lum := 1.01
	class := "K"
	err := s.store.UpdateStar(s.ctx, Star{StarName: "Sun", Classification: &class, Luminosity: &lum})
	s.Require().NoError(err)

	rows, err := s.store.Select(s.ctx, "Star", query.Filter{Conditions: []query.Condition{
		{Attribute: "StarName", Operator: "=", Value: "Sun"},
	}})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	v, _ := rows[0].Get("Luminosity")
	s.Equal(1.01, v)
	v, _ = rows[0].Get("Classification")
	s.Equal("K", v)
	// не переданные атрибуты перезаписываются NULL
	v, _ = rows[0].Get("GalaxyName")
	s.Nil(v)
	v, _ = rows[0].Get("EstimatedObjects")
	s.Nil(v)

	err = s.store.UpdateStar(s.ctx, Star{StarName: "Nemesis", Luminosity: &lum})
	s.True(errors.Is(err, ErrNotFound), "got %v", err)
}

func (s *StoreSuite) TestDeleteLifeformIgnoresCase() {
	s.Require().NoError(s.store.DeleteLifeform(s.ctx, "hUMAN"))

	rows := s.store.ReadAll(s.ctx, "lifeforms", query.ListParams{})
	s.NotContains(s.names(rows, "LFName"), "Human")

	err := s.store.DeleteLifeform(s.ctx, "Human")
	s.True(errors.Is(err, ErrNotFound), "got %v", err)
}

func (s *StoreSuite) TestReadAllUnknownEntityIsEmpty() {
	rows := s.store.ReadAll(s.ctx, "blackholes", query.ListParams{})
	s.NotNil(rows)
	s.Empty(rows)
}

func (s *StoreSuite) TestReadAllBadFilterIsEmpty() {
	lp := query.ListParams{Conditions: []query.Condition{{Attribute: "Radius", Operator: "gt", Value: "big"}}}
	rows := s.store.ReadAll(s.ctx, "Planet", lp)
	s.NotNil(rows)
	s.Empty(rows)
}

func (s *StoreSuite) TestReadAllListParams() {
	lp := query.ListParams{
		Sort:  []query.SortKey{{Field: "Radius", Desc: true}},
		Limit: 2,
		Nulls: "last",
	}
	rows := s.store.ReadAll(s.ctx, "planets", lp)
	s.Equal([]string{"Jupiter", "Proxima b"}, s.names(rows, "PlanetName"))

	lp.Offset = 2
	rows = s.store.ReadAll(s.ctx, "planets", lp)
	s.Equal([]string{"Earth", "Mars"}, s.names(rows, "PlanetName"))

	lp = query.ListParams{Offset: 3}
	rows = s.store.ReadAll(s.ctx, "planets", lp)
	s.Equal([]string{"Proxima b"}, s.names(rows, "PlanetName"))

	lp = query.ListParams{Conditions: []query.Condition{{Attribute: "StarName", Operator: "eq", Value: "Sun"}}}
	rows = s.store.ReadAll(s.ctx, "Planet", lp)
	s.Equal([]string{"Earth", "Jupiter", "Mars"}, s.names(rows, "PlanetName"))
}

func (s *StoreSuite) TestReadAllRowShape() {
	rows := s.store.ReadAll(s.ctx, "life_forms", query.ListParams{
		Conditions: []query.Condition{{Attribute: "LFName", Operator: "=", Value: "Human"}},
	})
	s.Require().Len(rows, 1)
	names := make([]string, 0, len(rows[0]))
	for _, c := range rows[0] {
		names = append(names, c.Name)
	}
	s.Equal([]string{"LFName", "Classification", "DiscoveryDate", "AverageLength", "PlanetName"}, names)
	d, _ := rows[0].Get("DiscoveryDate")
	s.Equal("1758-01-01", d)
}

func (s *StoreSuite) TestSelectLike() {
	rows, err := s.store.Select(s.ctx, "Star", query.Filter{Conditions: []query.Condition{
		{Attribute: "StarName", Operator: "LIKE", Value: "Cent"},
		{Attribute: "StarName", Operator: "=", Value: "Vega", Conjunction: "OR"},
	}})
	s.Require().NoError(err)
	s.Equal([]string{"Proxima Centauri", "Vega"}, s.names(rows, "StarName"))

	_, err = s.store.Select(s.ctx, "Star", query.Filter{Conditions: []query.Condition{
		{Attribute: "Password", Operator: "=", Value: "x"},
	}})
	s.True(errors.Is(err, ErrValidation))
}

func (s *StoreSuite) TestProject() {
	rows, err := s.store.Project(s.ctx, "LifeForms", []string{"LFName", "PlanetName", "Secret"})
	s.Require().NoError(err)
	s.Require().Len(rows, 4)
	s.Len(rows[0], 2)
	_, ok := rows[0].Get("Classification")
	s.False(ok)

	rows, err = s.store.Project(s.ctx, "LifeForms", nil)
	s.Require().NoError(err)
	s.Len(rows[0], 5)
}

func (s *StoreSuite) TestPlanetCountByStar() {
	got, err := s.store.PlanetCountByStar(s.ctx)
	s.Require().NoError(err)
	s.Equal([]StarPlanetCount{
		{StarName: "Proxima Centauri", PlanetCount: 1},
		{StarName: "Sun", PlanetCount: 3},
	}, got)
}

func (s *StoreSuite) TestStarsWithManyPlanets() {
	got, err := s.store.StarsWithManyPlanets(s.ctx)
	s.Require().NoError(err)
	s.Equal([]StarPlanetCount{{StarName: "Sun", PlanetCount: 3}}, got)

	// строго больше порога
	strict := New(s.db, s.cat, zap.NewNop(), Options{ManyPlanetsThreshold: 3})
	got, err = strict.StarsWithManyPlanets(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)
	s.NotNil(got)
}

func (s *StoreSuite) TestBiologicallyRichPlanets() {
	// Earth: 3, Mars: 1; среднее 2
	got, err := s.store.BiologicallyRichPlanets(s.ctx)
	s.Require().NoError(err)
	s.Equal([]PlanetLifeformCount{{PlanetName: "Earth", LifeFormCount: 3}}, got)
}

func (s *StoreSuite) TestPlanetsWithAllLifeformTypes() {
	got, err := s.store.PlanetsWithAllLifeformTypes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]PlanetRef{{PlanetName: "Earth"}}, got)

	// форма жизни без классификации не расширяет эталонное множество,
	// но и не делает Jupiter "полной" планетой
	e, err := s.store.entity("LifeForms")
	s.Require().NoError(err)
	s.Require().NoError(s.store.insert(s.ctx, "test", e, map[string]any{"LFName": "Cloud", "PlanetName": "Jupiter"}))
	got, err = s.store.PlanetsWithAllLifeformTypes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]PlanetRef{{PlanetName: "Earth"}}, got)
}

func (s *StoreSuite) TestPlanetsWithAllLifeformTypesWithoutLifeforms() {
	for _, name := range []string{"Human", "Oak", "E. coli", "Xeno"} {
		s.Require().NoError(s.store.DeleteLifeform(s.ctx, name))
	}
	// эталонное множество пусто, но планеты без форм жизни не попадают в ответ
	got, err := s.store.PlanetsWithAllLifeformTypes(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)

	// одна форма жизни без классификации: эталонное множество всё ещё пусто,
	// и Jupiter не становится "полной" планетой
	e, err := s.store.entity("LifeForms")
	s.Require().NoError(err)
	s.Require().NoError(s.store.insert(s.ctx, "test", e, map[string]any{"LFName": "Cloud", "PlanetName": "Jupiter"}))
	got, err = s.store.PlanetsWithAllLifeformTypes(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *StoreSuite) TestLifeformsInGalaxy() {
	got, err := s.store.LifeformsInGalaxy(s.ctx, "ANDROMEDA")
	s.Require().NoError(err)
	s.Require().Len(got, 4)

	var human *LifeformInGalaxy
	for i := range got {
		if got[i].LFName == "Human" {
			human = &got[i]
		}
	}
	s.Require().NotNil(human)
	s.Equal("Earth", human.PlanetName)
	s.Equal("Sun", human.StarName)
	s.Equal("Andromeda", human.GalaxyName)
	s.Require().NotNil(human.DiscoveryDate)
	s.Equal("1758-01-01", *human.DiscoveryDate)
	s.Require().NotNil(human.Classification)
	s.Equal("Animal", *human.Classification)

	got, err = s.store.LifeformsInGalaxy(s.ctx, "Milky Way")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *StoreSuite) TestOnDeletePolicies() {
	ph := s.db.Dialect().Placeholder(1)

	// planet ← star объявлен restrict
	_, err := s.store.exec(s.ctx, "test", `DELETE FROM "star" WHERE "star_name" = `+ph, "Sun")
	s.True(errors.Is(err, ErrMissingReference), "got %v", err)

	// луны и формы жизни уходят каскадом, аппарат теряет ссылку
	n, err := s.store.exec(s.ctx, "test", `DELETE FROM "planet" WHERE "planet_name" = `+ph, "Mars")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	s.NotContains(s.names(s.store.ReadAll(s.ctx, "moons", query.ListParams{}), "MoonName"), "Phobos")
	s.NotContains(s.names(s.store.ReadAll(s.ctx, "lifeforms", query.ListParams{}), "LFName"), "Xeno")

	rows, err := s.store.Select(s.ctx, "SpaceCraft", query.Filter{Conditions: []query.Condition{
		{Attribute: "SpaceCraftName", Operator: "=", Value: "Perseverance"},
	}})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	v, _ := rows[0].Get("PlanetName")
	s.Nil(v)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
