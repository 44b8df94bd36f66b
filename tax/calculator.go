/*
calculator.go - Tax computation

PURPOSE:
  A single Calculator handles every kind. Fixed-rate kinds multiply the base
  by their nominal rate; ICMS also consults the state and activity tables.

CONTRACT:
  The calculator does not validate. Callers validate the Context at the
  boundary (ParseContext / Context.Validate) and pass only valid contexts.
  Unknown state and activity codes resolve to zero and are logged at debug
  level.

EXAMPLES:
  base=1000, ISS                   -> 1000 * 0.04            = 40
  base=1000, ISS, food             -> 40 - 1                 = 39
  base=1000, ISS, medicine         -> 40 + 2.5               = 42.5
  base=1000, ICMS, MG, CNAE 123    -> (1000 + 1) * 0.18 * 0.1 = 18.018
  base=500,  ICMS, ZZ, CNAE 999    -> (500 + 0) * 0.18 * 0    = 0
*/
package tax

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// DefaultFoodDiscount is subtracted from the standard amount for food.
	DefaultFoodDiscount = decimal.NewFromInt(1)

	// DefaultMedicineSurcharge is added to the standard amount for medicine.
	DefaultMedicineSurcharge = MustParseDecimal("2.5")
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes tax amounts. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	rates             Rates
	states            StateRateTable
	activities        ActivitySurchargeTable
	foodDiscount      decimal.Decimal
	medicineSurcharge decimal.Decimal
	log               *zap.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithRates replaces the nominal rate table. The map is copied.
func WithRates(r Rates) Option {
	return func(c *Calculator) { c.rates = r.Clone() }
}

// WithStateRates replaces the state table.
func WithStateRates(t StateRateTable) Option {
	return func(c *Calculator) { c.states = t }
}

// WithActivitySurcharges replaces the activity table.
func WithActivitySurcharges(t ActivitySurchargeTable) Option {
	return func(c *Calculator) { c.activities = t }
}

// WithFoodDiscount overrides the flat food discount.
func WithFoodDiscount(d decimal.Decimal) Option {
	return func(c *Calculator) { c.foodDiscount = d }
}

// WithMedicineSurcharge overrides the flat medicine surcharge.
func WithMedicineSurcharge(d decimal.Decimal) Option {
	return func(c *Calculator) { c.medicineSurcharge = d }
}

// WithLogger sets the logger used for lookup misses.
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCalculator creates a calculator with the built-in tables, modified by opts.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		rates:             DefaultRates(),
		states:            DefaultStateRates(),
		activities:        DefaultActivitySurcharges(),
		foodDiscount:      DefaultFoodDiscount,
		medicineSurcharge: DefaultMedicineSurcharge,
		log:               zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Rate returns the nominal rate of k.
func (c *Calculator) Rate(k Kind) decimal.Decimal {
	return c.rates.Rate(k)
}

// ComputeTax returns the standard tax amount for kind.
func (c *Calculator) ComputeTax(kind Kind, ctx Context) decimal.Decimal {
	rate := c.rates.Rate(kind)
	if !kind.StateDependent() {
		return ctx.Base.Mul(rate)
	}

	base := ctx.Base.Add(c.ActivitySurcharge(ctx.ActivityCode))
	return base.Mul(rate).Mul(c.StateRate(ctx.State))
}

// ComputeFoodTax returns the standard amount minus the food discount. The
// result may be negative when the standard amount is below the discount.
func (c *Calculator) ComputeFoodTax(kind Kind, ctx Context) decimal.Decimal {
	return c.ComputeTax(kind, ctx).Sub(c.foodDiscount)
}

// ComputeMedicineTax returns the standard amount plus the medicine surcharge.
func (c *Calculator) ComputeMedicineTax(kind Kind, ctx Context) decimal.Decimal {
	return c.ComputeTax(kind, ctx).Add(c.medicineSurcharge)
}

// Compute dispatches on category. Unknown categories are treated as standard;
// use ParseCategory at the boundary to reject them.
func (c *Calculator) Compute(kind Kind, category Category, ctx Context) decimal.Decimal {
	switch category {
	case CategoryFood:
		return c.ComputeFoodTax(kind, ctx)
	case CategoryMedicine:
		return c.ComputeMedicineTax(kind, ctx)
	default:
		return c.ComputeTax(kind, ctx)
	}
}

// Assess computes the amount and returns it with its inputs.
func (c *Calculator) Assess(kind Kind, category Category, ctx Context) Assessment {
	if category == "" {
		category = CategoryStandard
	}
	return Assessment{
		Kind:     kind,
		Category: category,
		Context:  ctx,
		Rate:     c.rates.Rate(kind),
		Amount:   c.Compute(kind, category, ctx),
	}
}

// StateRate returns the ICMS multiplier for state, or zero if unknown. Only
// misses for a non-empty state are logged.
func (c *Calculator) StateRate(state string) decimal.Decimal {
	if c.states != nil {
		if v, ok := c.states.StateRate(state); ok {
			return v
		}
	}
	if state != "" {
		c.log.Debug("state not in rate table, using zero", zap.String("state", state))
	}
	return decimal.Zero
}

// ActivitySurcharge returns the surcharge for code, or zero if absent. Only
// misses for a non-empty code are logged.
func (c *Calculator) ActivitySurcharge(code string) decimal.Decimal {
	if c.activities != nil {
		if v, ok := c.activities.Surcharge(code); ok {
			return v
		}
	}
	if code != "" {
		c.log.Debug("activity code not in surcharge table, using zero", zap.String("activity_code", code))
	}
	return decimal.Zero
}
