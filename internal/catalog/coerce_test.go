package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	c := builtin(t)
	star, _ := c.Entity("Star")
	lf, _ := c.Entity("LifeForms")

	class, _ := star.Field("Classification")
	v, err := c.Coerce(class, "G")
	require.NoError(t, err)
	assert.Equal(t, "G", v)

	_, err = c.Coerce(class, "Q")
	assert.ErrorContains(t, err, "spectral_class")

	objects, _ := star.Field("EstimatedObjects")
	v, err = c.Coerce(objects, 8.0)
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)
	_, err = c.Coerce(objects, 8.5)
	assert.Error(t, err)
	// целые за пределами int64 не обрезаются молча
	for _, big := range []float64{1e30, -1e19, math.Pow(2, 63)} {
		_, err = c.Coerce(objects, big)
		assert.Error(t, err, "%g", big)
		_, err = ToInt(big)
		assert.ErrorContains(t, err, "must be integer", "%g", big)
	}
	n, err := ToInt(-math.Pow(2, 63))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), n)
	v, err = c.Coerce(objects, "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	lum, _ := star.Field("Luminosity")
	v, err = c.Coerce(lum, "1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
	v, err = c.Coerce(lum, "")
	require.NoError(t, err)
	assert.Nil(t, v)
	_, err = c.Coerce(lum, true)
	assert.Error(t, err)

	date, _ := lf.Field("DiscoveryDate")
	v, err = c.Coerce(date, "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", v)
	v, err = c.Coerce(date, "2024-02-29T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", v)
	_, err = c.Coerce(date, "2023-02-29")
	assert.Error(t, err)
	_, err = c.Coerce(date, "yesterday")
	assert.Error(t, err)

	// ref приводится к типу ключа цели
	gal, _ := star.Field("GalaxyName")
	v, err = c.Coerce(gal, " Andromeda ")
	require.NoError(t, err)
	assert.Equal(t, "Andromeda", v)
	_, err = c.Coerce(gal, 42.0)
	assert.Error(t, err)
}

func TestToFloatRejectsNonFinite(t *testing.T) {
	_, err := ToFloat(math.Inf(1))
	assert.Error(t, err)
	_, err = ToFloat("NaN")
	assert.Error(t, err)
	f, err := ToFloat(int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
}

func TestCoerceAll(t *testing.T) {
	c := builtin(t)
	star, _ := c.Entity("Star")

	fields, vals, errs := c.CoerceAll(star, map[string]any{"StarName": "Sun"}, true)
	assert.Empty(t, errs)
	require.Len(t, fields, 1)
	assert.Equal(t, "star_name", fields[0].Column())
	assert.Equal(t, []any{"Sun"}, vals)

	_, _, errs = c.CoerceAll(star, map[string]any{"Age": 4.6}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrKeyExpected, errs[0].Code)

	_, _, errs = c.CoerceAll(star, map[string]any{"StarName": "Sol"}, false)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNotUpdatable, errs[0].Code)

	_, _, errs = c.CoerceAll(star, map[string]any{"Colour": "red"}, false)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownField, errs[0].Code)

	// порядок стабильный: по имени атрибута
	fields, _, errs = c.CoerceAll(star, map[string]any{"Luminosity": 1.0, "Age": 2.0, "Declination": 3.0}, false)
	assert.Empty(t, errs)
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"Age", "Declination", "Luminosity"}, []string{fields[0].Name, fields[1].Name, fields[2].Name})
}
