package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/tax-engine/config"
	"github.com/warp/tax-engine/tax"
)

func runCLI(t *testing.T, cfg config.Config, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, func() (config.Config, error) { return cfg, nil })
	return code, stdout.String(), stderr.String()
}

func quietConfig() config.Config {
	return config.Config{Env: config.EnvDevelopment, LogLevel: "error"}
}

func TestRun_Examples(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ISS standard", []string{"-kind=ISS", "-base=1000"}, "Total tax due (ISS, standard): 40\n"},
		{"ISS food", []string{"-kind=iss", "-base=1000", "-category=food"}, "Total tax due (ISS, food): 39\n"},
		{"ISS medicine", []string{"-kind=ISS", "-base=1000", "-category=medicine"}, "Total tax due (ISS, medicine): 42.5\n"},
		{"ICMS MG", []string{"-kind=ICMS", "-base=1000", "-state=MG", "-activity=123"}, "Total tax due (ICMS, standard): 18.018\n"},
		{"ICMS unknown", []string{"-kind=ICMS", "-base=500", "-state=ZZ", "-activity=999"}, "Total tax due (ICMS, standard): 0\n"},
		{"rounded", []string{"-kind=ICMS", "-base=1000", "-state=MG", "-activity=123", "-precision=2"}, "Total tax due (ICMS, standard): 18.02\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, quietConfig(), tt.args...)
			assert.Equal(t, exitOK, code)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestRun_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing kind", []string{"-base=10"}},
		{"unknown kind", []string{"-kind=IPI", "-base=10"}},
		{"unknown category", []string{"-kind=ISS", "-base=10", "-category=luxury"}},
		{"missing base", []string{"-kind=ISS"}},
		{"negative base", []string{"-kind=ISS", "-base=-1"}},
		{"unknown flag", []string{"-kind=ISS", "-base=1", "-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, quietConfig(), tt.args...)
			assert.Equal(t, exitRequest, code)
			assert.Empty(t, stdout)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestRun_TablesFile(t *testing.T) {
	// GIVEN: A tables file where SP is known and ICMS is 12%
	// WHEN: Computing ICMS for SP
	// THEN: The file's tables are used instead of the built-in ones

	doc := `
rates: {ISS: 0.04, COFINS: 0.03, PIS: 0.10, ICMS: 0.12}
state_rates: {SP: 1}
`
	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	code, stdout, _ := runCLI(t, quietConfig(), "-kind=ICMS", "-base=1000", "-state=SP", "-tables="+path)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Total tax due (ICMS, standard): 120\n", stdout)

	// Same file via configuration
	cfg := quietConfig()
	cfg.TablesFile = path
	code, stdout, _ = runCLI(t, cfg, "-kind=ICMS", "-base=1000", "-state=SP")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Total tax due (ICMS, standard): 120\n", stdout)
}

func TestRun_BadTablesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rates": {"ISS": 0.04}}`), 0o600))

	code, stdout, _ := runCLI(t, quietConfig(), "-kind=ISS", "-base=1", "-tables="+path)
	assert.Equal(t, exitConfig, code)
	assert.Empty(t, stdout)
}

func TestRun_Help(t *testing.T) {
	code, stdout, stderr := runCLI(t, quietConfig(), "-h")

	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "-kind")
}

func TestRun_MalformedDotEnv(t *testing.T) {
	// GIVEN: A .env file that cannot be parsed
	// WHEN: Running a valid request
	// THEN: The run stops with a configuration error before computing

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("\"BROKEN=1\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-kind=ISS", "-base=1000"}, &stdout, &stderr, func() (config.Config, error) {
		return config.Load(path)
	})

	assert.Equal(t, exitConfig, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), path)
}

func TestParseRequest(t *testing.T) {
	kind, category, ctx, err := parseRequest("cofins", "", "10", "", "")
	require.NoError(t, err)
	assert.Equal(t, tax.COFINS, kind)
	assert.Equal(t, tax.CategoryStandard, category)
	assert.Equal(t, "10", ctx.Base.String())

	_, _, _, err = parseRequest("PIS", "food", "-3", "", "")
	assert.ErrorIs(t, err, tax.ErrInvalidInput)
}
