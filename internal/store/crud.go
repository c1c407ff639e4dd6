package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"celestial/internal/catalog"
	"celestial/internal/dsl"
	"celestial/internal/pg"
	"celestial/internal/query"

	"go.uber.org/zap"
)

// InsertPlanet добавляет планету. Повтор имени — ErrDuplicateKey,
// несуществующая звезда — ErrMissingReference.
func (s *Store) InsertPlanet(ctx context.Context, p Planet) error {
	var errs []catalog.FieldError
	if strings.TrimSpace(p.PlanetName) == "" {
		errs = append(errs, catalog.Ferr(catalog.ErrRequired, "PlanetName", "Field 'PlanetName' is required"))
	}
	if strings.TrimSpace(p.StarName) == "" {
		errs = append(errs, catalog.Ferr(catalog.ErrRequired, "StarName", "Field 'StarName' is required"))
	}
	for name, v := range map[string]float64{"Radius": p.Radius, "Density": p.Density, "RotationalPeriod": p.RotationalPeriod} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, catalog.Ferr(catalog.ErrTypeMismatch, name, "Field '"+name+"' must be a finite number"))
		}
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}

	e, err := s.entity("Planet")
	if err != nil {
		return err
	}
	return s.insert(ctx, "insert_planet", e, map[string]any{
		"PlanetName":       strings.TrimSpace(p.PlanetName),
		"Radius":           p.Radius,
		"Density":          p.Density,
		"RotationalPeriod": p.RotationalPeriod,
		"StarName":         strings.TrimSpace(p.StarName),
	})
}

// insert — параметризованный INSERT по объявленным атрибутам сущности
func (s *Store) insert(ctx context.Context, op string, e *dsl.Entity, attrs map[string]any) error {
	var (
		cols, phs []string
		errs      []catalog.FieldError
	)
	b := s.db.Dialect().Binder()
	for _, f := range e.Fields {
		raw, present := attrs[f.Name]
		v, err := s.cat.Coerce(f, raw)
		if err != nil {
			errs = append(errs, catalog.Ferr(catalog.ErrTypeMismatch, f.Name, "Field '"+f.Name+"' "+err.Error()))
			continue
		}
		if v == nil {
			if f.Required() {
				errs = append(errs, catalog.Ferr(catalog.ErrRequired, f.Name, "Field '"+f.Name+"' is required"))
			}
			if !present {
				continue
			}
		}
		cols = append(cols, pg.Ident(f.Column()))
		phs = append(phs, b.Add(v))
	}
	for name := range attrs {
		if _, ok := e.Field(name); !ok {
			errs = append(errs, catalog.Ferr(catalog.ErrUnknownField, name, fmt.Sprintf("%s has no attribute '%s'", e.Name, name)))
		}
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", pg.Ident(e.Table()), strings.Join(cols, ", "), strings.Join(phs, ", "))
	n, err := s.exec(ctx, op, q, b.Args()...)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insert into %s: no rows affected", e.Table())
	}
	return nil
}

// Update строит UPDATE t SET c=$1,... WHERE k=$n AND ... из пар атрибут→значение.
// keys — только ключевые атрибуты, values — только неключевые.
func (s *Store) Update(ctx context.Context, entity string, keys, values map[string]any) error {
	e, err := s.resolve(entity)
	if err != nil {
		return err
	}
	var errs []catalog.FieldError
	if len(keys) == 0 {
		errs = append(errs, catalog.Ferr(catalog.ErrRequired, "keys", "at least one key attribute is required"))
	}
	if len(values) == 0 {
		errs = append(errs, catalog.Ferr(catalog.ErrRequired, "values", "at least one attribute to update is required"))
	}
	kf, kv, kerrs := s.cat.CoerceAll(e, keys, true)
	vf, vv, verrs := s.cat.CoerceAll(e, values, false)
	errs = append(append(errs, kerrs...), verrs...)
	if len(errs) > 0 {
		return invalid(errs...)
	}

	b := s.db.Dialect().Binder()
	set := make([]string, 0, len(vf))
	for i, f := range vf {
		set = append(set, fmt.Sprintf("%s = %s", pg.Ident(f.Column()), b.Add(vv[i])))
	}
	where := make([]string, 0, len(kf))
	for i, f := range kf {
		where = append(where, fmt.Sprintf("%s = %s", pg.Ident(f.Column()), b.Add(kv[i])))
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		pg.Ident(e.Table()), strings.Join(set, ", "), strings.Join(where, " AND "))

	n, err := s.exec(ctx, "update", q, b.Args()...)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, e.Name, keys)
	}
	return nil
}

// UpdateStar перезаписывает все атрибуты звезды; nil-поля становятся NULL
func (s *Store) UpdateStar(ctx context.Context, st Star) error {
	if strings.TrimSpace(st.StarName) == "" {
		return invalid(catalog.Ferr(catalog.ErrRequired, "StarName", "Field 'StarName' is required"))
	}
	return s.Update(ctx, "Star", map[string]any{"StarName": strings.TrimSpace(st.StarName)}, st.values())
}

// DeleteLifeform удаляет форму жизни по имени без учёта регистра
func (s *Store) DeleteLifeform(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(catalog.Ferr(catalog.ErrRequired, "LFName", "Field 'LFName' is required"))
	}
	e, err := s.entity("LifeForms")
	if err != nil {
		return err
	}
	f, _ := e.Field("LFName")

	b := s.db.Dialect().Binder()
	q := fmt.Sprintf("DELETE FROM %s WHERE LOWER(%s) = %s",
		pg.Ident(e.Table()), pg.Ident(f.Column()), b.Add(strings.ToLower(name)))
	n, err := s.exec(ctx, "delete_lifeform", q, b.Args()...)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: lifeform %q", ErrNotFound, name)
	}
	return nil
}

// ReadAll — SELECT всех объявленных колонок сущности. Неизвестная сущность,
// некорректный фильтр или сбой выполнения дают пустой список.
func (s *Store) ReadAll(ctx context.Context, entity string, lp query.ListParams) []Row {
	e, ok := s.cat.Resolve(entity)
	if !ok {
		s.log.Warn("table mapping not found", zap.String("entity", entity))
		return []Row{}
	}

	b := s.db.Dialect().Binder()
	q := fmt.Sprintf("SELECT %s FROM %s", columnList(e.Fields), pg.Ident(e.Table()))
	if len(lp.Conditions) > 0 {
		where, errs := query.Compile(s.cat, e, lp.Conditions, b)
		if len(errs) > 0 {
			s.log.Warn("read filter rejected", zap.String("entity", e.Name), zap.Error(invalid(errs...)))
			return []Row{}
		}
		q += " WHERE " + where
	}
	if order := query.OrderBy(e, lp.Sort, lp.Nulls); order != "" {
		q += order
	} else {
		q += defaultOrder(e)
	}
	q += limitClause(lp.Limit, lp.Offset)

	rows, err := s.selectRows(ctx, "read_all", e.Fields, q, b.Args())
	if err != nil {
		s.log.Warn("read failed", zap.String("entity", e.Name), zap.String("table", e.Table()), zap.Error(err))
		return []Row{}
	}
	return rows
}

// Select — структурированный фильтр вместо сырого SQL
func (s *Store) Select(ctx context.Context, entity string, f query.Filter) ([]Row, error) {
	e, err := s.resolve(entity)
	if err != nil {
		return nil, err
	}
	b := s.db.Dialect().Binder()
	q := fmt.Sprintf("SELECT %s FROM %s", columnList(e.Fields), pg.Ident(e.Table()))
	if len(f.Conditions) > 0 {
		where, errs := query.Compile(s.cat, e, f.Conditions, b)
		if len(errs) > 0 {
			return nil, invalid(errs...)
		}
		q += " WHERE " + where
	}
	q += defaultOrder(e)
	return s.selectRows(ctx, "select", e.Fields, q, b.Args())
}

// Project — проекция на атрибуты из allow-list сущности
func (s *Store) Project(ctx context.Context, entity string, attrs []string) ([]Row, error) {
	e, err := s.resolve(entity)
	if err != nil {
		return nil, err
	}
	fields := query.Project(e, attrs)
	q := fmt.Sprintf("SELECT %s FROM %s%s", columnList(fields), pg.Ident(e.Table()), defaultOrder(e))
	return s.selectRows(ctx, "project", fields, q, nil)
}

func defaultOrder(e *dsl.Entity) string {
	keys := e.Keys()
	if len(keys) == 0 {
		return ""
	}
	return " ORDER BY " + columnList(keys)
}

// limitClause: OFFSET без LIMIT sqlite не принимает, поэтому предел всегда явный
func limitClause(limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return ""
	}
	if limit <= 0 {
		limit = math.MaxInt32
	}
	out := " LIMIT " + strconv.Itoa(limit)
	if offset > 0 {
		out += " OFFSET " + strconv.Itoa(offset)
	}
	return out
}

// IsClientError — ошибки, которые вызваны запросом клиента, а не сбоем
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownEntity) || errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrMissingReference)
}
