package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Planet — запись для POST /insert-planet
type Planet struct {
	PlanetName       string  `json:"PlanetName"`
	Radius           float64 `json:"Radius"`
	Density          float64 `json:"Density"`
	RotationalPeriod float64 `json:"RotationalPeriod"`
	StarName         string  `json:"StarName"`
}

// Star — полный набор атрибутов звезды; nil означает NULL
type Star struct {
	StarName         string   `json:"StarName"`
	Classification   *string  `json:"Classification"`
	RightAscension   *float64 `json:"RightAscension"`
	Declination      *float64 `json:"Declination"`
	Luminosity       *float64 `json:"Luminosity"`
	Age              *float64 `json:"Age"`
	EstimatedObjects *int64   `json:"EstimatedObjects"`
	GalaxyName       *string  `json:"GalaxyName"`
}

func (st Star) values() map[string]any {
	return map[string]any{
		"Classification":   deref(st.Classification),
		"RightAscension":   deref(st.RightAscension),
		"Declination":      deref(st.Declination),
		"Luminosity":       deref(st.Luminosity),
		"Age":              deref(st.Age),
		"EstimatedObjects": deref(st.EstimatedObjects),
		"GalaxyName":       deref(st.GalaxyName),
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

type LifeformInGalaxy struct {
	LFName         string   `json:"LFName"`
	Classification *string  `json:"Classification"`
	DiscoveryDate  *string  `json:"DiscoveryDate"`
	AverageLength  *float64 `json:"AverageLength"`
	PlanetName     string   `json:"PlanetName"`
	StarName       string   `json:"StarName"`
	GalaxyName     string   `json:"GalaxyName"`
}

type StarPlanetCount struct {
	StarName    string `json:"StarName"`
	PlanetCount int64  `json:"PlanetCount"`
}

type PlanetLifeformCount struct {
	PlanetName    string `json:"PlanetName"`
	LifeFormCount int64  `json:"LifeFormCount"`
}

type PlanetRef struct {
	PlanetName string `json:"PlanetName"`
}

// Cell — значение атрибута под его API-именем
type Cell struct {
	Name  string
	Value any
}

// Row — строка generic-чтения; в JSON сохраняет порядок атрибутов
type Row []Cell

func (r Row) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", c.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// nullDate читает date из pgx (time.Time) и sqlite (time.Time или текст)
type nullDate struct {
	S     string
	Valid bool
}

func (d *nullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.S, d.Valid = "", false
	case time.Time:
		d.S, d.Valid = v.Format(time.DateOnly), true
	case string:
		d.S, d.Valid = trimDate(v), true
	case []byte:
		d.S, d.Valid = trimDate(string(v)), true
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
	return nil
}

func trimDate(s string) string {
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

func (d nullDate) ptr() *string {
	if !d.Valid {
		return nil
	}
	s := d.S
	return &s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
