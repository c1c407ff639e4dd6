package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"celestial/internal/pg"
)

// Канонические отчёты: фиксированный SQL, параметры только через bind.
// Таблицы и колонки подставляются из каталога: {Entity} и {Entity.Attr}.

const planetCountByStarSQL = `SELECT {Planet.StarName}, COUNT(*) AS planet_count
FROM {Planet}
GROUP BY {Planet.StarName}
ORDER BY {Planet.StarName}`

// HAVING-порог передаётся параметром
const starsWithManyPlanetsSQL = `SELECT {Planet.StarName}, COUNT(*) AS planet_count
FROM {Planet}
GROUP BY {Planet.StarName}
HAVING COUNT(*) > %s
ORDER BY {Planet.StarName}`

const biologicallyRichPlanetsSQL = `SELECT {LifeForms.PlanetName}, COUNT(*) AS lifeform_count
FROM {LifeForms}
GROUP BY {LifeForms.PlanetName}
HAVING COUNT(*) >= (
  SELECT AVG(lf_count)
  FROM (
    SELECT COUNT(*) AS lf_count
    FROM {LifeForms}
    GROUP BY {LifeForms.PlanetName}
  ) sub
)
ORDER BY {LifeForms.PlanetName}`

// Деление: планеты, для которых не существует классификации, отсутствующей
// на планете. Планеты без форм жизни исключаются всегда, NULL-классификации
// в эталонное множество не входят; пустое эталонное множество даёт пустой ответ.
const planetsWithAllLifeformTypesSQL = `SELECT p.{Planet.PlanetName}
FROM {Planet} p
WHERE EXISTS (
  SELECT 1 FROM {LifeForms} own WHERE own.{LifeForms.PlanetName} = p.{Planet.PlanetName}
)
AND EXISTS (
  SELECT 1 FROM {LifeForms} x WHERE x.{LifeForms.Classification} IS NOT NULL
)
AND NOT EXISTS (
  SELECT 1
  FROM {LifeForms} c
  WHERE c.{LifeForms.Classification} IS NOT NULL
  AND NOT EXISTS (
    SELECT 1
    FROM {LifeForms} lf
    WHERE lf.{LifeForms.PlanetName} = p.{Planet.PlanetName}
    AND lf.{LifeForms.Classification} = c.{LifeForms.Classification}
  )
)
ORDER BY p.{Planet.PlanetName}`

const lifeformsInGalaxySQL = `SELECT lf.{LifeForms.LFName}, lf.{LifeForms.Classification}, lf.{LifeForms.DiscoveryDate},
  lf.{LifeForms.AverageLength}, lf.{LifeForms.PlanetName}, p.{Planet.StarName}, s.{Star.GalaxyName}
FROM {LifeForms} lf
JOIN {Planet} p ON lf.{LifeForms.PlanetName} = p.{Planet.PlanetName}
JOIN {Star} s ON p.{Planet.StarName} = s.{Star.StarName}
JOIN {Galaxy} g ON s.{Star.GalaxyName} = g.{Galaxy.GalaxyName}
WHERE LOWER(g.{Galaxy.GalaxyName}) = %s
ORDER BY lf.{LifeForms.LFName}, lf.{LifeForms.PlanetName}`

var placeholderRe = regexp.MustCompile(`\{(\w+)(?:\.(\w+))?\}`)

// render подставляет в шаблон отчёта физические имена из каталога
func (s *Store) render(tmpl string) (string, error) {
	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		e, err := s.entity(sub[1])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		if sub[2] == "" {
			return pg.Ident(e.Table())
		}
		f, ok := e.Field(sub[2])
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("report needs attribute %s.%s", e.Name, sub[2])
			}
			return m
		}
		return pg.Ident(f.Column())
	})
	return out, firstErr
}

func (s *Store) PlanetCountByStar(ctx context.Context) ([]StarPlanetCount, error) {
	q, err := s.render(planetCountByStarSQL)
	if err != nil {
		return nil, err
	}
	return s.starCounts(ctx, "planet_count_by_star", q, nil)
}

// StarsWithManyPlanets — звёзды, у которых планет строго больше порога
func (s *Store) StarsWithManyPlanets(ctx context.Context) ([]StarPlanetCount, error) {
	tmpl, err := s.render(starsWithManyPlanetsSQL)
	if err != nil {
		return nil, err
	}
	b := s.db.Dialect().Binder()
	q := fmt.Sprintf(tmpl, b.Add(int64(s.opts.ManyPlanetsThreshold)))
	return s.starCounts(ctx, "stars_with_many_planets", q, b.Args())
}

func (s *Store) starCounts(ctx context.Context, op, q string, args []any) ([]StarPlanetCount, error) {
	out := []StarPlanetCount{}
	err := s.query(ctx, op, q, args, func(rows *sql.Rows) error {
		var r StarPlanetCount
		if err := rows.Scan(&r.StarName, &r.PlanetCount); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BiologicallyRichPlanets — планеты с числом форм жизни не ниже среднего
func (s *Store) BiologicallyRichPlanets(ctx context.Context) ([]PlanetLifeformCount, error) {
	q, err := s.render(biologicallyRichPlanetsSQL)
	if err != nil {
		return nil, err
	}
	out := []PlanetLifeformCount{}
	err = s.query(ctx, "biologically_rich_planets", q, nil, func(rows *sql.Rows) error {
		var r PlanetLifeformCount
		if err := rows.Scan(&r.PlanetName, &r.LifeFormCount); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) PlanetsWithAllLifeformTypes(ctx context.Context) ([]PlanetRef, error) {
	q, err := s.render(planetsWithAllLifeformTypesSQL)
	if err != nil {
		return nil, err
	}
	out := []PlanetRef{}
	err = s.query(ctx, "planets_with_all_lifeform_types", q, nil, func(rows *sql.Rows) error {
		var r PlanetRef
		if err := rows.Scan(&r.PlanetName); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LifeformsInGalaxy — LifeForms ⋈ Planet ⋈ Star ⋈ Galaxy по имени галактики (без учёта регистра)
func (s *Store) LifeformsInGalaxy(ctx context.Context, galaxy string) ([]LifeformInGalaxy, error) {
	tmpl, err := s.render(lifeformsInGalaxySQL)
	if err != nil {
		return nil, err
	}
	b := s.db.Dialect().Binder()
	q := fmt.Sprintf(tmpl, b.Add(strings.ToLower(strings.TrimSpace(galaxy))))

	out := []LifeformInGalaxy{}
	err = s.query(ctx, "lifeforms_in_galaxy", q, b.Args(), func(rows *sql.Rows) error {
		var (
			r      LifeformInGalaxy
			class  sql.NullString
			date   nullDate
			length sql.NullFloat64
		)
		if err := rows.Scan(&r.LFName, &class, &date, &length, &r.PlanetName, &r.StarName, &r.GalaxyName); err != nil {
			return err
		}
		r.Classification = strPtr(class)
		r.DiscoveryDate = date.ptr()
		r.AverageLength = floatPtr(length)
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
