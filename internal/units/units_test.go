// internal/units/units_test.go
package units

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertKnownFactors(t *testing.T) {
	tests := []struct {
		name string
		qty  string
		from Unit
		to   Unit
		want string
	}{
		{"kg to grams", "2", UnitKilogram, UnitGram, "2000"},
		{"tons to kg", "1", UnitTon, UnitKilogram, "1000"},
		{"arrobas to kg", "3", UnitArroba, UnitKilogram, "34.506"},
		{"pounds to kg", "10", UnitPound, UnitKilogram, "4.536"},
		{"kg to arrobas", "23.004", UnitKilogram, UnitArroba, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(decimal.RequireFromString(tt.qty), tt.from, tt.to)
			require.True(t, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestConvertSameUnitIsIdentity(t *testing.T) {
	qty := decimal.RequireFromString("12.345")
	for _, u := range All() {
		got, ok := Convert(qty, u, u)
		require.True(t, ok, "unit %s", u)
		assert.True(t, got.Equal(qty), "unit %s", u)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	convertible := []Unit{UnitKilogram, UnitGram, UnitPound, UnitArroba, UnitTon}
	halfULP := decimal.RequireFromString("0.0005")
	qty := decimal.RequireFromString("250")

	for _, from := range convertible {
		for _, to := range convertible {
			there, ok := Convert(qty, from, to)
			require.True(t, ok, "%s -> %s", from, to)

			back, ok := Convert(there, to, from)
			require.True(t, ok, "%s -> %s", to, from)

			// Each conversion rounds to 3 decimals in its target unit, so
			// the permitted drift is half an ulp of the intermediate unit
			// expressed in the source unit, plus half an ulp of the source.
			tolerance := halfULP.Mul(kilogramFactors[to]).Div(kilogramFactors[from]).Add(halfULP)

			diff := back.Sub(qty).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance),
				"%s -> %s -> %s drifted by %s (tolerance %s)", from, to, from, diff, tolerance)
		}
	}
}

func TestConvertDiscreteUnitsFailClosed(t *testing.T) {
	qty := decimal.NewFromInt(5)

	for _, discrete := range []Unit{UnitUnidad, UnitCaja, UnitBulto} {
		_, ok := Convert(qty, discrete, UnitKilogram)
		assert.False(t, ok, "%s -> kg should not convert", discrete)

		_, ok = Convert(qty, UnitKilogram, discrete)
		assert.False(t, ok, "kg -> %s should not convert", discrete)
	}

	// Mixed discrete pairs fail too.
	_, ok := Convert(qty, UnitCaja, UnitBulto)
	assert.False(t, ok)

	_, ok = Convert(qty, "fanegas", UnitKilogram)
	assert.False(t, ok, "unknown unit should not convert")
}

func TestPriceInSameUnitUnchanged(t *testing.T) {
	price := decimal.NewFromInt(2000)
	got, ok := PriceIn(price, UnitKilogram, UnitKilogram)
	require.True(t, ok)
	assert.True(t, got.Equal(price))
}

func TestPriceInArrobaToKilogram(t *testing.T) {
	// 50,000 per arroba is 4,347.07 per kg (50,000 / 11.502).
	got, ok := PriceIn(decimal.NewFromInt(50000), UnitArroba, UnitKilogram)
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("4347.07")),
		"got %s", got)
}

func TestPriceInDiscreteFailsClosed(t *testing.T) {
	_, ok := PriceIn(decimal.NewFromInt(1500), UnitUnidad, UnitKilogram)
	assert.False(t, ok)
}

func TestIsValid(t *testing.T) {
	for _, u := range All() {
		assert.True(t, IsValid(u))
	}
	assert.False(t, IsValid("litros"))
}
