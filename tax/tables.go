/*
tables.go - Lookup tables consulted by the calculator

KEY INTERFACES:
  StateRateTable:         state code -> ICMS state multiplier
  ActivitySurchargeTable: CNAE activity code -> additive surcharge

Both report whether the key was found. The calculator turns a miss into
zero; a miss is never an error.

IMPLEMENTATIONS:
  StaticStateRates / StaticActivitySurcharges are map-backed and copied at
  construction. They are never written afterwards, so they can be shared
  across goroutines without locking. A database-backed table only needs to
  satisfy the same one-method interface.
*/
package tax

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INTERFACES
// =============================================================================

// StateRateTable looks up the ICMS multiplier for a state.
type StateRateTable interface {
	StateRate(state string) (decimal.Decimal, bool)
}

// ActivitySurchargeTable looks up the surcharge added to the ICMS base for a
// CNAE activity code.
type ActivitySurchargeTable interface {
	Surcharge(code string) (decimal.Decimal, bool)
}

// =============================================================================
// NOMINAL RATES
// =============================================================================

// Rates maps each kind to its nominal rate.
type Rates map[Kind]decimal.Decimal

// DefaultRates returns the statutory nominal rates.
func DefaultRates() Rates {
	return Rates{
		ISS:    MustParseDecimal("0.04"),
		COFINS: MustParseDecimal("0.03"),
		PIS:    MustParseDecimal("0.10"),
		ICMS:   MustParseDecimal("0.18"),
	}
}

// Rate returns the nominal rate for k, or zero if k has none.
func (r Rates) Rate(k Kind) decimal.Decimal {
	if v, ok := r[k]; ok {
		return v
	}
	return decimal.Zero
}

// Clone returns an independent copy.
func (r Rates) Clone() Rates {
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Missing returns the supported kinds without a rate.
func (r Rates) Missing() []Kind {
	var missing []Kind
	for _, k := range Kinds() {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// =============================================================================
// STATE RATES
// =============================================================================

// StaticStateRates is an immutable in-memory StateRateTable. Codes are
// matched case-insensitively. A nil table is empty.
type StaticStateRates struct {
	rates map[string]decimal.Decimal
}

var _ StateRateTable = (*StaticStateRates)(nil)

// NewStaticStateRates copies rates into a new table.
func NewStaticStateRates(rates map[string]decimal.Decimal) *StaticStateRates {
	t := &StaticStateRates{rates: make(map[string]decimal.Decimal, len(rates))}
	for state, rate := range rates {
		t.rates[NormalizeState(state)] = rate
	}
	return t
}

// DefaultStateRates returns the built-in state multipliers.
func DefaultStateRates() *StaticStateRates {
	return NewStaticStateRates(map[string]decimal.Decimal{
		"MG": MustParseDecimal("0.1"),
		"PE": MustParseDecimal("0.2"),
		"ES": MustParseDecimal("0.3"),
	})
}

func (t *StaticStateRates) StateRate(state string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	v, ok := t.rates[NormalizeState(state)]
	return v, ok
}

// Entries returns a copy of the table contents.
func (t *StaticStateRates) Entries() map[string]decimal.Decimal {
	if t == nil {
		return map[string]decimal.Decimal{}
	}
	return copyTable(t.rates)
}

// States returns the known state codes, sorted.
func (t *StaticStateRates) States() []string {
	if t == nil {
		return nil
	}
	return sortedKeys(t.rates)
}

// NormalizeState returns the key a state code is stored and matched under.
func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// =============================================================================
// ACTIVITY SURCHARGES
// =============================================================================

// StaticActivitySurcharges is an immutable in-memory ActivitySurchargeTable.
// A nil table is empty.
type StaticActivitySurcharges struct {
	surcharges map[string]decimal.Decimal
}

var _ ActivitySurchargeTable = (*StaticActivitySurcharges)(nil)

// NewStaticActivitySurcharges copies surcharges into a new table.
func NewStaticActivitySurcharges(surcharges map[string]decimal.Decimal) *StaticActivitySurcharges {
	t := &StaticActivitySurcharges{surcharges: make(map[string]decimal.Decimal, len(surcharges))}
	for code, v := range surcharges {
		t.surcharges[NormalizeActivityCode(code)] = v
	}
	return t
}

// DefaultActivitySurcharges returns the built-in CNAE surcharges. A real
// deployment would back this with the full CNAE registry.
func DefaultActivitySurcharges() *StaticActivitySurcharges {
	return NewStaticActivitySurcharges(map[string]decimal.Decimal{
		"123": MustParseDecimal("1.00"),
		"456": MustParseDecimal("2.45"),
		"789": MustParseDecimal("0.55"),
	})
}

func (t *StaticActivitySurcharges) Surcharge(code string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	v, ok := t.surcharges[NormalizeActivityCode(code)]
	return v, ok
}

// Entries returns a copy of the table contents.
func (t *StaticActivitySurcharges) Entries() map[string]decimal.Decimal {
	if t == nil {
		return map[string]decimal.Decimal{}
	}
	return copyTable(t.surcharges)
}

// Codes returns the known activity codes, sorted.
func (t *StaticActivitySurcharges) Codes() []string {
	if t == nil {
		return nil
	}
	return sortedKeys(t.surcharges)
}

// NormalizeActivityCode returns the key an activity code is stored and
// matched under.
func NormalizeActivityCode(code string) string {
	return strings.TrimSpace(code)
}

// =============================================================================
// HELPERS
// =============================================================================

func copyTable(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
