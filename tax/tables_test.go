package tax_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/tax-engine/tax"
)

func TestStaticStateRates_CopiesInput(t *testing.T) {
	src := map[string]decimal.Decimal{"mg": dec("0.1")}
	table := tax.NewStaticStateRates(src)

	src["MG"] = dec("0.9")
	src["SP"] = dec("0.5")

	v, ok := table.StateRate("MG")
	assert.True(t, ok)
	assertDecimal(t, "0.1", v)

	_, ok = table.StateRate("SP")
	assert.False(t, ok)
	assert.Equal(t, []string{"MG"}, table.States())
}

func TestStaticStateRates_EntriesIsACopy(t *testing.T) {
	table := tax.DefaultStateRates()

	entries := table.Entries()
	entries["MG"] = dec("5")

	v, _ := table.StateRate("MG")
	assertDecimal(t, "0.1", v)
	assert.Equal(t, []string{"ES", "MG", "PE"}, table.States())
}

func TestStaticActivitySurcharges(t *testing.T) {
	table := tax.DefaultActivitySurcharges()

	v, ok := table.Surcharge(" 456 ")
	assert.True(t, ok)
	assertDecimal(t, "2.45", v)

	_, ok = table.Surcharge("4560")
	assert.False(t, ok)

	assert.Equal(t, []string{"123", "456", "789"}, table.Codes())
	assert.Len(t, table.Entries(), 3)
}

func TestRates(t *testing.T) {
	rates := tax.DefaultRates()
	assert.Empty(t, rates.Missing())
	assertDecimal(t, "0.04", rates.Rate(tax.ISS))

	partial := tax.Rates{tax.ISS: dec("0.05")}
	assert.Equal(t, []tax.Kind{tax.COFINS, tax.PIS, tax.ICMS}, partial.Missing())
	assertDecimal(t, "0", partial.Rate(tax.PIS))
}

func TestStaticTables_NilReceiverIsEmpty(t *testing.T) {
	var states *tax.StaticStateRates
	var activities *tax.StaticActivitySurcharges

	_, ok := states.StateRate("MG")
	assert.False(t, ok)
	assert.Empty(t, states.Entries())
	assert.Empty(t, states.States())

	_, ok = activities.Surcharge("123")
	assert.False(t, ok)
	assert.Empty(t, activities.Entries())
	assert.Empty(t, activities.Codes())

	// Typed nil pointers passed as options are empty tables too
	calc := tax.NewCalculator(tax.WithStateRates(states), tax.WithActivitySurcharges(activities))
	assertDecimal(t, "0", calc.ComputeTax(tax.ICMS, icmsContext("1000", "MG", "123")))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "MG", tax.NormalizeState(" mg "))
	assert.Equal(t, "4711-3/02", tax.NormalizeActivityCode(" 4711-3/02 "))
}
