// internal/units/units.go
package units

import (
	"github.com/shopspring/decimal"
)

// Unit is a unit of measure a publication can be listed in.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
	UnitPound    Unit = "libras"
	UnitArroba   Unit = "arrobas"
	UnitTon      Unit = "toneladas"
	UnitUnidad   Unit = "unidades"
	UnitCaja     Unit = "cajas"
	UnitBulto    Unit = "bultos"
)

// kilogramFactors maps each convertible weight unit to its kilogram
// equivalent. Discrete units (unidades, cajas, bultos) have no entry and
// are never convertible.
var kilogramFactors = map[Unit]decimal.Decimal{
	UnitKilogram: decimal.NewFromInt(1),
	UnitGram:     decimal.RequireFromString("0.001"),
	UnitPound:    decimal.RequireFromString("0.453592"),
	UnitArroba:   decimal.RequireFromString("11.502"),
	UnitTon:      decimal.NewFromInt(1000),
}

// All returns every valid unit, convertible ones first.
func All() []Unit {
	return []Unit{
		UnitKilogram, UnitGram, UnitPound, UnitArroba, UnitTon,
		UnitUnidad, UnitCaja, UnitBulto,
	}
}

// IsValid reports whether u is a known unit of measure.
func IsValid(u Unit) bool {
	if _, ok := kilogramFactors[u]; ok {
		return true
	}
	return u == UnitUnidad || u == UnitCaja || u == UnitBulto
}

// IsConvertible reports whether u is a weight unit with a kilogram factor.
func IsConvertible(u Unit) bool {
	_, ok := kilogramFactors[u]
	return ok
}

// Convert converts qty from one unit to another through kilograms, rounded
// to 3 decimal places. The second return is false when either unit is
// discrete or unknown; callers must fall back to the original quantity
// rather than erroring.
func Convert(qty decimal.Decimal, from, to Unit) (decimal.Decimal, bool) {
	if from == to {
		if !IsValid(from) {
			return decimal.Zero, false
		}
		return qty, true
	}

	fromFactor, ok := kilogramFactors[from]
	if !ok {
		return decimal.Zero, false
	}
	toFactor, ok := kilogramFactors[to]
	if !ok {
		return decimal.Zero, false
	}

	kilos := qty.Mul(fromFactor)
	return kilos.Div(toFactor).Round(3), true
}

// Factor returns how many target units one source unit represents.
func Factor(from, to Unit) (decimal.Decimal, bool) {
	return Convert(decimal.NewFromInt(1), from, to)
}

// PriceIn derives the price per target unit from a price per native unit.
// Rounded to 2 decimal places; fails closed like Convert.
func PriceIn(pricePerUnit decimal.Decimal, native, target Unit) (decimal.Decimal, bool) {
	if native == target {
		if !IsValid(native) {
			return decimal.Zero, false
		}
		return pricePerUnit, true
	}

	factor, ok := Factor(native, target)
	if !ok || factor.IsZero() {
		return decimal.Zero, false
	}
	return pricePerUnit.Div(factor).Round(2), true
}
