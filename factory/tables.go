/*
Package factory converts rate-table documents into a tax.Calculator.

PURPOSE:
  Rates change by legislation, not by release. Keeping them in a JSON or
  YAML document lets operators update a table without touching code.

JSON SCHEMA:
  {
    "rates": {"ISS": 0.04, "COFINS": 0.03, "PIS": 0.10, "ICMS": 0.18},
    "state_rates": {"MG": 0.1, "PE": 0.2, "ES": 0.3},
    "activity_surcharges": {"123": 1.00, "456": 2.45, "789": 0.55},
    "food_discount": 1,
    "medicine_surcharge": 2.5
  }

  YAML documents use the same keys. Numbers may also be given as strings
  ("0.18") to keep them out of float parsing entirely.

KEY FEATURES:
  - Validates every kind has a rate
  - Rejects negative rates, multipliers and surcharges
  - food_discount / medicine_surcharge are optional

USAGE:
  tables, err := factory.LoadFile("rates.yaml")
  if err != nil {
      return err
  }
  calc := tables.Calculator(tax.WithLogger(logger))
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/tax-engine/tax"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// TablesJSON is the serialized form of the rate tables.
type TablesJSON struct {
	Rates              map[string]decimal.Decimal `json:"rates"`
	StateRates         map[string]decimal.Decimal `json:"state_rates,omitempty"`
	ActivitySurcharges map[string]decimal.Decimal `json:"activity_surcharges,omitempty"`
	FoodDiscount       *decimal.Decimal           `json:"food_discount,omitempty"`
	MedicineSurcharge  *decimal.Decimal           `json:"medicine_surcharge,omitempty"`
}

// tablesYAML decodes scalars as text so decimals never pass through float64.
type tablesYAML struct {
	Rates              map[string]string `yaml:"rates"`
	StateRates         map[string]string `yaml:"state_rates"`
	ActivitySurcharges map[string]string `yaml:"activity_surcharges"`
	FoodDiscount       *string           `yaml:"food_discount"`
	MedicineSurcharge  *string           `yaml:"medicine_surcharge"`
}

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension. Anything other
// than .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// TABLES
// =============================================================================

// Tables is a validated set of rate tables.
type Tables struct {
	Rates              tax.Rates
	StateRates         *tax.StaticStateRates
	ActivitySurcharges *tax.StaticActivitySurcharges
	FoodDiscount       decimal.Decimal
	MedicineSurcharge  decimal.Decimal
}

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	return &Tables{
		Rates:              tax.DefaultRates(),
		StateRates:         tax.DefaultStateRates(),
		ActivitySurcharges: tax.DefaultActivitySurcharges(),
		FoodDiscount:       tax.DefaultFoodDiscount,
		MedicineSurcharge:  tax.DefaultMedicineSurcharge,
	}
}

// Calculator builds a calculator from the tables. Extra options are applied
// after the tables, so they may override them.
func (t *Tables) Calculator(opts ...tax.Option) *tax.Calculator {
	// A nil table has no entries; the Static* lookups accept nil receivers.
	base := []tax.Option{
		tax.WithRates(t.Rates),
		tax.WithStateRates(t.StateRates),
		tax.WithActivitySurcharges(t.ActivitySurcharges),
		tax.WithFoodDiscount(t.FoodDiscount),
		tax.WithMedicineSurcharge(t.MedicineSurcharge),
	}
	return tax.NewCalculator(append(base, opts...)...)
}

// =============================================================================
// PARSING
// =============================================================================

// LoadFile reads and parses a tables document.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	tables, err := ParseTables(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tables, nil
}

// ParseTables decodes and validates a tables document.
func ParseTables(data []byte, format Format) (*Tables, error) {
	var tj TablesJSON
	switch format {
	case FormatYAML:
		var err error
		if tj, err = decodeYAML(data); err != nil {
			return nil, err
		}
	case FormatJSON, "":
		if err := json.Unmarshal(data, &tj); err != nil {
			return nil, fmt.Errorf("failed to parse tables JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported tables format %q", format)
	}
	return FromJSON(tj)
}

func decodeYAML(data []byte) (TablesJSON, error) {
	var ty tablesYAML
	if err := yaml.Unmarshal(data, &ty); err != nil {
		return TablesJSON{}, fmt.Errorf("failed to parse tables YAML: %w", err)
	}

	var (
		tj  TablesJSON
		err error
	)
	if tj.Rates, err = decimalMap("rates", ty.Rates); err != nil {
		return TablesJSON{}, err
	}
	if tj.StateRates, err = decimalMap("state_rates", ty.StateRates); err != nil {
		return TablesJSON{}, err
	}
	if tj.ActivitySurcharges, err = decimalMap("activity_surcharges", ty.ActivitySurcharges); err != nil {
		return TablesJSON{}, err
	}
	if tj.FoodDiscount, err = decimalPtr("food_discount", ty.FoodDiscount); err != nil {
		return TablesJSON{}, err
	}
	if tj.MedicineSurcharge, err = decimalPtr("medicine_surcharge", ty.MedicineSurcharge); err != nil {
		return TablesJSON{}, err
	}
	return tj, nil
}

// FromJSON validates a decoded document and converts it to Tables.
func FromJSON(tj TablesJSON) (*Tables, error) {
	if err := validate(tj); err != nil {
		return nil, err
	}

	rates := make(tax.Rates, len(tj.Rates))
	for name, v := range tj.Rates {
		k, _ := tax.ParseKind(name) // checked by validate
		rates[k] = v
	}

	t := &Tables{
		Rates:              rates,
		StateRates:         tax.NewStaticStateRates(tj.StateRates),
		ActivitySurcharges: tax.NewStaticActivitySurcharges(tj.ActivitySurcharges),
		FoodDiscount:       tax.DefaultFoodDiscount,
		MedicineSurcharge:  tax.DefaultMedicineSurcharge,
	}
	if tj.FoodDiscount != nil {
		t.FoodDiscount = *tj.FoodDiscount
	}
	if tj.MedicineSurcharge != nil {
		t.MedicineSurcharge = *tj.MedicineSurcharge
	}
	return t, nil
}

// ToJSON converts Tables back to the document form.
func ToJSON(t *Tables) TablesJSON {
	tj := TablesJSON{
		Rates:              make(map[string]decimal.Decimal, len(t.Rates)),
		StateRates:         t.StateRates.Entries(),
		ActivitySurcharges: t.ActivitySurcharges.Entries(),
	}
	for k, v := range t.Rates {
		tj.Rates[k.String()] = v
	}
	food, medicine := t.FoodDiscount, t.MedicineSurcharge
	tj.FoodDiscount = &food
	tj.MedicineSurcharge = &medicine
	return tj
}

// =============================================================================
// VALIDATION
// =============================================================================

func validate(tj TablesJSON) error {
	var problems []string

	seen := make(map[tax.Kind]bool)
	for name, v := range tj.Rates {
		k, err := tax.ParseKind(name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("rates: unknown kind %q", name))
			continue
		}
		if seen[k] {
			problems = append(problems, fmt.Sprintf("rates: %s given more than once", k))
		}
		seen[k] = true
		if v.IsNegative() {
			problems = append(problems, fmt.Sprintf("rates: %s is negative", k))
		}
	}
	for _, k := range tax.Kinds() {
		if !seen[k] {
			problems = append(problems, fmt.Sprintf("rates: missing %s", k))
		}
	}

	problems = append(problems, checkTable("state_rates", tj.StateRates, tax.NormalizeState)...)
	problems = append(problems, checkTable("activity_surcharges", tj.ActivitySurcharges, tax.NormalizeActivityCode)...)

	if tj.FoodDiscount != nil && tj.FoodDiscount.IsNegative() {
		problems = append(problems, "food_discount is negative")
	}
	if tj.MedicineSurcharge != nil && tj.MedicineSurcharge.IsNegative() {
		problems = append(problems, "medicine_surcharge is negative")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", tax.ErrInvalidTables, strings.Join(problems, "; "))
	}
	return nil
}

func checkTable(name string, m map[string]decimal.Decimal, normalize func(string) string) []string {
	var problems []string
	seen := make(map[string]bool, len(m))
	for code, v := range m {
		key := normalize(code)
		if key == "" {
			problems = append(problems, fmt.Sprintf("%s: empty code", name))
		} else if seen[key] {
			problems = append(problems, fmt.Sprintf("%s: %s given more than once", name, key))
		}
		seen[key] = true
		if v.IsNegative() {
			problems = append(problems, fmt.Sprintf("%s: %s is negative", name, code))
		}
	}
	return problems
}

func decimalMap(field string, in map[string]string) (map[string]decimal.Decimal, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for k, s := range in {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %q is not a number", tax.ErrInvalidTables, field, k, s)
		}
		out[k] = d
	}
	return out, nil
}

func decimalPtr(field string, s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not a number", tax.ErrInvalidTables, field, *s)
	}
	return &d, nil
}
