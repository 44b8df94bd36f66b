/*
Package tax computes Brazilian tax amounts (ISS, COFINS, PIS, ICMS) from a
taxable base.

PURPOSE:
  One data-driven calculator replaces a family of near-identical per-tax
  implementations. Each kind has a nominal rate; ICMS additionally depends
  on the seller's state and on the CNAE activity code of the operation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind:       Which tax is being computed (ISS, COFINS, PIS, ICMS)
  - Category:   Product category (standard, food, medicine)
  - Context:    The inputs of one calculation (base, state, activity code)
  - Assessment: The result of one calculation

FORMULAS:
  ISS/COFINS/PIS:  base * rate
  ICMS:            (base + activitySurcharge) * rate * stateRate
  food:            standard - 1
  medicine:        standard + 2.5

PRECISION:
  All amounts and rates are decimal.Decimal. 1000 * 0.04 is exactly 40.

USAGE:
  calc := tax.NewCalculator()
  ctx, err := tax.ParseContext("1000", "MG", "123")
  if err != nil {
      return err // negative or malformed base
  }
  amount := calc.ComputeTax(tax.ICMS, ctx) // 18.018

SEE ALSO:
  - calculator.go: Computation
  - tables.go: State and activity lookup tables
  - errors.go: Error types
*/
package tax

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND
// =============================================================================

// Kind identifies a tax.
type Kind string

const (
	ISS    Kind = "ISS"
	COFINS Kind = "COFINS"
	PIS    Kind = "PIS"
	ICMS   Kind = "ICMS"
)

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{ISS, COFINS, PIS, ICMS}
}

func (k Kind) String() string { return string(k) }

// IsValid reports whether k is one of the supported kinds.
func (k Kind) IsValid() bool {
	switch k {
	case ISS, COFINS, PIS, ICMS:
		return true
	}
	return false
}

// StateDependent reports whether the amount depends on state and activity code.
func (k Kind) StateDependent() bool { return k == ICMS }

// ParseKind parses a kind name, ignoring case and surrounding spaces.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// =============================================================================
// CATEGORY
// =============================================================================

// Category selects the flat adjustment applied on top of the standard amount.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryFood     Category = "food"     // flat discount
	CategoryMedicine Category = "medicine" // flat surcharge
)

// ParseCategory parses a category name. An empty string means standard.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CategoryStandard, nil
	case CategoryStandard, CategoryFood, CategoryMedicine:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// =============================================================================
// CONTEXT - Inputs of one calculation
// =============================================================================

// Context holds the inputs of one calculation. State and ActivityCode are
// only consulted for ICMS; an empty value means the field is absent.
type Context struct {
	Base         decimal.Decimal
	State        string
	ActivityCode string
}

// NewContext creates a context for a base amount with no state or activity code.
func NewContext(base decimal.Decimal) Context {
	return Context{Base: base}
}

// WithState returns a copy of c with the state set.
func (c Context) WithState(state string) Context {
	c.State = state
	return c
}

// WithActivityCode returns a copy of c with the activity code set.
func (c Context) WithActivityCode(code string) Context {
	c.ActivityCode = code
	return c
}

// Validate rejects contexts the calculator must never see.
func (c Context) Validate() error {
	if c.Base.IsNegative() {
		return &InvalidInputError{Field: "base", Value: c.Base.String(), Reason: "must not be negative"}
	}
	return nil
}

// ParseContext builds a validated context from raw text, as received at the
// edge of the system.
func ParseContext(base, state, activityCode string) (Context, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return Context{}, &InvalidInputError{Field: "base", Reason: "is required"}
	}
	d, err := decimal.NewFromString(base)
	if err != nil {
		return Context{}, &InvalidInputError{Field: "base", Value: base, Reason: "is not a number"}
	}

	c := Context{Base: d, State: state, ActivityCode: activityCode}
	if err := c.Validate(); err != nil {
		return Context{}, err
	}
	return c, nil
}

// =============================================================================
// ASSESSMENT - Result of one calculation
// =============================================================================

// Assessment records a computed tax amount together with what produced it.
type Assessment struct {
	Kind     Kind
	Category Category
	Context  Context
	Rate     decimal.Decimal // nominal rate of Kind
	Amount   decimal.Decimal
}

func (a Assessment) String() string {
	return fmt.Sprintf("total tax due (%s, %s): %s", a.Kind, a.Category, a.Amount.String())
}

// =============================================================================
// HELPERS
// =============================================================================

// MustParseDecimal parses s or panics. Use only for literals.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
