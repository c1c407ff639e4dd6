package catalog

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"celestial/internal/dsl"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок валидации атрибутов
const (
	ErrRequired     = "required"
	ErrTypeMismatch = "type_mismatch"
	ErrEnumInvalid  = "enum_invalid"
	ErrUnknownField = "unknown_field"
	ErrKeyExpected  = "key_expected"
	ErrNotUpdatable = "not_updatable"
)

func Ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`) // YYYY-MM-DD

// Coerce приводит значение из JSON к объявленному типу атрибута.
// Пустая строка для нестроковых типов трактуется как NULL.
func (c *Catalog) Coerce(f dsl.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" && f.Type != "string" {
		return nil, nil
	}
	switch f.Type {
	case "string":
		s, err := ToString(v)
		if err != nil {
			return nil, err
		}
		if name := f.Catalog(); name != "" {
			dir, ok := c.Enums[name]
			if !ok || !dir.Has(s) {
				return nil, fmt.Errorf("value '%s' is not in catalog %s", s, name)
			}
		}
		return s, nil
	case "int":
		return ToInt(v)
	case "float":
		return ToFloat(v)
	case "date":
		s, err := ToString(v)
		if err != nil {
			return nil, err
		}
		return ToDate(s)
	case "enum":
		s, err := ToString(v)
		if err != nil {
			return nil, err
		}
		for _, ev := range f.Enum {
			if s == ev {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value '%s' is not allowed", s)
	case "ref":
		_, key, err := c.RefKey(f)
		if err != nil {
			return nil, err
		}
		return c.Coerce(key, v)
	default:
		return nil, fmt.Errorf("unsupported type %q", f.Type)
	}
}

func ToString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	default:
		// числа автоматически в строки не превращаем
		return "", errors.New("must be string")
	}
}

func ToInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		// JSON числа приходят как float64 — проверяем целостность
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, errors.New("must be integer")
		}
		// 2^63 в float64 представимо точно, но в int64 уже не влезает
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, errors.New("must be integer in int64 range")
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, errors.New("must be integer")
		}
		return n, nil
	default:
		return 0, errors.New("must be integer")
	}
}

func ToFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.New("must be number")
		}
		f = p
	default:
		return 0, errors.New("must be number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be a finite number")
	}
	return f, nil
}

// ToDate принимает YYYY-MM-DD или RFC3339 и возвращает YYYY-MM-DD
func ToDate(s string) (string, error) {
	if dateRe.MatchString(s) {
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "", errors.New("invalid date")
		}
		return s, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.Format(time.DateOnly), nil
	}
	return "", errors.New("must match YYYY-MM-DD")
}

// CoerceAll проверяет и приводит пары атрибут->значение для сущности e.
// keys=true требует ключевые атрибуты, keys=false — только неключевые.
func (c *Catalog) CoerceAll(e *dsl.Entity, in map[string]any, keys bool) ([]dsl.Field, []any, []FieldError) {
	var (
		fields []dsl.Field
		vals   []any
		errs   []FieldError
	)
	for _, name := range sortedKeys(in) {
		f, ok := e.Field(name)
		if !ok {
			errs = append(errs, Ferr(ErrUnknownField, name, fmt.Sprintf("%s has no attribute '%s'", e.Name, name)))
			continue
		}
		if keys && !f.IsKey() {
			errs = append(errs, Ferr(ErrKeyExpected, f.Name, "Field '"+f.Name+"' is not a key attribute"))
			continue
		}
		if !keys && f.IsKey() {
			errs = append(errs, Ferr(ErrNotUpdatable, f.Name, "Key attribute '"+f.Name+"' cannot be updated"))
			continue
		}
		v, err := c.Coerce(f, in[name])
		if err != nil {
			errs = append(errs, Ferr(ErrTypeMismatch, f.Name, "Field '"+f.Name+"' "+err.Error()))
			continue
		}
		if v == nil && f.Required() {
			errs = append(errs, Ferr(ErrRequired, f.Name, "Field '"+f.Name+"' is required"))
			continue
		}
		fields = append(fields, f)
		vals = append(vals, v)
	}
	return fields, vals, errs
}
