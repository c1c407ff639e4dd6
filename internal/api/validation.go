package api

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode"

	"celestial/internal/catalog"
	"celestial/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// insertPlanetReq — тело POST /insert-planet; числа допускаются и строками
type insertPlanetReq struct {
	Name     any `json:"name"`
	Radius   any `json:"radius"`
	Density  any `json:"density"`
	Period   any `json:"period"`
	StarName any `json:"starName"`
}

// toPlanet проверяет обязательные поля и приводит числа
func (r insertPlanetReq) toPlanet() (store.Planet, []catalog.FieldError) {
	var (
		p    store.Planet
		errs []catalog.FieldError
	)
	p.PlanetName, errs = requiredString(errs, "name", r.Name)
	p.Radius, errs = requiredFloat(errs, "radius", r.Radius)
	p.Density, errs = requiredFloat(errs, "density", r.Density)
	p.RotationalPeriod, errs = requiredFloat(errs, "period", r.Period)
	p.StarName, errs = requiredString(errs, "starName", r.StarName)
	return p, errs
}

// updateStarReq — тело PUT /update-star/:starName; отсутствующее поле = NULL
type updateStarReq struct {
	Classification   any `json:"classification"`
	RightAscension   any `json:"rightAscension"`
	Declination      any `json:"declination"`
	Luminosity       any `json:"luminosity"`
	Age              any `json:"age"`
	EstimatedObjects any `json:"estimatedObjects"`
	GalaxyName       any `json:"galaxyName"`
}

func (r updateStarReq) toStar(name string) (store.Star, []catalog.FieldError) {
	var errs []catalog.FieldError
	st := store.Star{StarName: strings.TrimSpace(name)}
	st.Classification, errs = optionalString(errs, "classification", r.Classification)
	st.RightAscension, errs = optionalFloat(errs, "rightAscension", r.RightAscension)
	st.Declination, errs = optionalFloat(errs, "declination", r.Declination)
	st.Luminosity, errs = optionalFloat(errs, "luminosity", r.Luminosity)
	st.Age, errs = optionalFloat(errs, "age", r.Age)
	st.EstimatedObjects, errs = optionalInt(errs, "estimatedObjects", r.EstimatedObjects)
	st.GalaxyName, errs = optionalString(errs, "galaxyName", r.GalaxyName)
	return st, errs
}

type updateReq struct {
	Keys   map[string]any `json:"keys" binding:"required"`
	Values map[string]any `json:"values" binding:"required"`
}

type projectReq struct {
	Attributes []string `json:"attributes"`
}

// selectReq — структурированный фильтр; Send — прежний сырой SQL, больше не принимается
type selectReq struct {
	Conditions []conditionReq  `json:"conditions" binding:"dive"`
	Send       json.RawMessage `json:"send"`
}

type conditionReq struct {
	Attribute   string `json:"attribute" binding:"required"`
	Operator    string `json:"operator" binding:"required"`
	Value       any    `json:"value"`
	Conjunction string `json:"conjunction" binding:"omitempty,oneof=AND OR and or And Or"`
}

func requiredString(errs []catalog.FieldError, field string, v any) (string, []catalog.FieldError) {
	if v == nil {
		return "", append(errs, catalog.Ferr(catalog.ErrRequired, field, "Field '"+field+"' is required"))
	}
	s, err := catalog.ToString(v)
	if err != nil {
		return "", append(errs, catalog.Ferr(catalog.ErrTypeMismatch, field, "Field '"+field+"' "+err.Error()))
	}
	if s == "" {
		return "", append(errs, catalog.Ferr(catalog.ErrRequired, field, "Field '"+field+"' is required"))
	}
	return s, errs
}

func requiredFloat(errs []catalog.FieldError, field string, v any) (float64, []catalog.FieldError) {
	if isBlank(v) {
		return 0, append(errs, catalog.Ferr(catalog.ErrRequired, field, "Field '"+field+"' is required"))
	}
	f, err := catalog.ToFloat(v)
	if err != nil {
		return 0, append(errs, catalog.Ferr(catalog.ErrTypeMismatch, field, "Field '"+field+"' "+err.Error()))
	}
	return f, errs
}

func optionalString(errs []catalog.FieldError, field string, v any) (*string, []catalog.FieldError) {
	if isBlank(v) {
		return nil, errs
	}
	s, err := catalog.ToString(v)
	if err != nil {
		return nil, append(errs, catalog.Ferr(catalog.ErrTypeMismatch, field, "Field '"+field+"' "+err.Error()))
	}
	return &s, errs
}

func optionalFloat(errs []catalog.FieldError, field string, v any) (*float64, []catalog.FieldError) {
	if isBlank(v) {
		return nil, errs
	}
	f, err := catalog.ToFloat(v)
	if err != nil {
		return nil, append(errs, catalog.Ferr(catalog.ErrTypeMismatch, field, "Field '"+field+"' "+err.Error()))
	}
	return &f, errs
}

func optionalInt(errs []catalog.FieldError, field string, v any) (*int64, []catalog.FieldError) {
	if isBlank(v) {
		return nil, errs
	}
	n, err := catalog.ToInt(v)
	if err != nil {
		return nil, append(errs, catalog.Ferr(catalog.ErrTypeMismatch, field, "Field '"+field+"' "+err.Error()))
	}
	return &n, errs
}

// пустая строка из формы = значение не задано
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// bindJSON разбирает тело; пустое тело допустимо, ошибки validator превращаются в FieldError
func bindJSON(c *gin.Context, obj any) []catalog.FieldError {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]catalog.FieldError, 0, len(ves))
		for _, fe := range ves {
			field := lowerFirst(fe.Field())
			switch fe.Tag() {
			case "required":
				out = append(out, catalog.Ferr(catalog.ErrRequired, field, "Field '"+field+"' is required"))
			case "oneof":
				out = append(out, catalog.Ferr("conjunction_invalid", field, "Field '"+field+"' must be one of "+fe.Param()))
			default:
				out = append(out, catalog.Ferr(catalog.ErrTypeMismatch, field, "Field '"+field+"' failed '"+fe.Tag()+"'"))
			}
		}
		return out
	}
	return []catalog.FieldError{catalog.Ferr(catalog.ErrTypeMismatch, "body", "Invalid JSON")}
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
