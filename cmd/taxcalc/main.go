/*
main.go - Command-line tax calculator

PURPOSE:
  Computes one tax amount from command-line input and prints it.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment)
  2. Build logger
  3. Load rate tables (file or built-in)
  4. Parse and validate the request
  5. Compute and print

COMMAND-LINE FLAGS:
  -kind       ISS, COFINS, PIS or ICMS (required)
  -category   standard, food or medicine (default: standard)
  -base       Taxable base amount (required, >= 0)
  -state      State code, ICMS only (e.g. MG)
  -activity   CNAE activity code, ICMS only (e.g. 123)
  -tables     Rate tables file (.json, .yaml); overrides TAX_TABLES_FILE
  -precision  Decimal places to print; -1 prints the exact amount

ENVIRONMENT:
  TAX_ENV          development | production (log format)
  LOG_LEVEL        debug | info | warn | error
  TAX_TABLES_FILE  Rate tables file

EXIT CODES:
  0  success
  1  configuration error (.env file, logger, tables file)
  2  invalid request

EXAMPLES:
  taxcalc -kind=ISS -base=1000 -category=food
  taxcalc -kind=ICMS -base=1000 -state=MG -activity=123
  LOG_LEVEL=debug taxcalc -kind=ICMS -base=500 -state=ZZ
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/warp/tax-engine/config"
	"github.com/warp/tax-engine/factory"
	"github.com/warp/tax-engine/tax"
)

const (
	exitOK      = 0
	exitConfig  = 1
	exitRequest = 2
)

// configLoader reads process configuration. main passes config.Load.
type configLoader func() (config.Config, error)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, func() (config.Config, error) {
		return config.Load()
	}))
}

func run(args []string, stdout, stderr io.Writer, load configLoader) int {
	cfg, err := load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitConfig
	}

	fs := flag.NewFlagSet("taxcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kindFlag := fs.String("kind", "", "tax kind: ISS, COFINS, PIS or ICMS")
	categoryFlag := fs.String("category", "standard", "product category: standard, food or medicine")
	baseFlag := fs.String("base", "", "taxable base amount")
	stateFlag := fs.String("state", "", "state code (ICMS)")
	activityFlag := fs.String("activity", "", "CNAE activity code (ICMS)")
	tablesFlag := fs.String("tables", cfg.TablesFile, "rate tables file (.json or .yaml)")
	precision := fs.Int("precision", -1, "decimal places to print, -1 for exact")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitRequest
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitConfig
	}
	defer logger.Sync() //nolint:errcheck

	tables := factory.DefaultTables()
	if *tablesFlag != "" {
		if tables, err = factory.LoadFile(*tablesFlag); err != nil {
			logger.Error("failed to load rate tables", zap.String("path", *tablesFlag), zap.Error(err))
			return exitConfig
		}
		logger.Debug("loaded rate tables", zap.String("path", *tablesFlag))
	}
	calc := tables.Calculator(tax.WithLogger(logger))

	kind, category, ctx, err := parseRequest(*kindFlag, *categoryFlag, *baseFlag, *stateFlag, *activityFlag)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitRequest
	}

	if !kind.StateDependent() && (ctx.State != "" || ctx.ActivityCode != "") {
		logger.Warn("state and activity code only apply to ICMS", zap.String("kind", kind.String()))
	}

	a := calc.Assess(kind, category, ctx)
	logger.Info("tax computed",
		zap.String("kind", a.Kind.String()),
		zap.String("category", string(a.Category)),
		zap.String("base", ctx.Base.String()),
		zap.String("amount", a.Amount.String()),
	)

	amount := a.Amount.String()
	if *precision >= 0 {
		amount = a.Amount.StringFixed(int32(*precision))
	}
	fmt.Fprintf(stdout, "Total tax due (%s, %s): %s\n", a.Kind, a.Category, amount)
	return exitOK
}

// parseRequest validates raw flag values. Every rejection here is a client
// error; the calculator never sees invalid input.
func parseRequest(kindArg, categoryArg, baseArg, state, activity string) (tax.Kind, tax.Category, tax.Context, error) {
	if kindArg == "" {
		return "", "", tax.Context{}, errors.New("-kind is required")
	}
	kind, err := tax.ParseKind(kindArg)
	if err != nil {
		return "", "", tax.Context{}, err
	}
	category, err := tax.ParseCategory(categoryArg)
	if err != nil {
		return "", "", tax.Context{}, err
	}
	ctx, err := tax.ParseContext(baseArg, state, activity)
	if err != nil {
		return "", "", tax.Context{}, err
	}
	return kind, category, ctx, nil
}
