package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
	"github.com/standardbeagle/conceptmap/internal/version"
)

const (
	testCatalog  = "../../internal/catalog/testdata/catalog.csv"
	testSynonyms = "../../internal/synonym/testdata/conditions.json"
)

// runCLICommand runs the app in-process and returns stdout
func runCLICommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	base := []string{"conceptmap", "--catalog", testCatalog, "--synonyms", testSynonyms, "--log-level", "error"}
	err := app.Run(append(base, args...))
	return stdout.String(), err
}

func TestMapCommand(t *testing.T) {
	out, err := runCLICommand(t, "map", "headache", "sugar sickness")
	require.NoError(t, err)
	assert.Contains(t, out, "CONCEPT")
	assert.Contains(t, out, "R51.9")
	assert.Contains(t, out, "E11.9")
}

func TestMapCommandUnmatched(t *testing.T) {
	out, err := runCLICommand(t, "map", "xyzzy plugh")
	require.NoError(t, err)
	assert.Contains(t, out, "(no match)")
}

func TestMapCommandJSONFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concepts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		"headache",
		{"text": "fever", "negated": true},
		{"text": "knee pain right side", "category": "laterality"}
	]`), 0o644))

	out, err := runCLICommand(t, "map", "--json", "--top-k", "2", "--file", path)
	require.NoError(t, err)

	var got []conceptOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)

	assert.Equal(t, "headache", got[0].Concept)
	require.NotEmpty(t, got[0].Results)
	assert.LessOrEqual(t, len(got[0].Results), 2)
	assert.Equal(t, "R51.9", got[0].Results[0].Code)

	assert.True(t, got[1].Negated)
	assert.Empty(t, got[1].Results)

	require.NotEmpty(t, got[2].Results)
	assert.Equal(t, "M25.561", got[2].Results[0].Code)
}

func TestMapCommandLineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concepts.txt")
	require.NoError(t, os.WriteFile(path, []byte("# batch\ncough\n\nnausea\n"), 0o644))

	out, err := runCLICommand(t, "map", "--json", "-f", path)
	require.NoError(t, err)

	var got []conceptOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "R05.9", got[0].Results[0].Code)
	assert.Equal(t, "R11.0", got[1].Results[0].Code)
}

func TestMapCommandRequiresConcepts(t *testing.T) {
	_, err := runCLICommand(t, "map")
	assert.ErrorIs(t, err, errNoConcepts)
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run([]string{"conceptmap", "version"})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), version.FullInfo())
	assert.Contains(t, stdout.String(), "build: "+version.BuildID())
}

func TestMissingCatalogFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run([]string{"conceptmap", "--catalog", "does-not-exist.csv", "map", "cough"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(cmerrors.NewCatalogLoadError("icd10.csv", cmerrors.ErrEmptyCatalog)))
	assert.Equal(t, 1, exitCode(errNoConcepts))
	assert.Equal(t, 1, exitCode(cmerrors.NewSynonymLoadError("syn.json", cmerrors.ErrNoSources)))
}

func TestLookupCommand(t *testing.T) {
	out, err := runCLICommand(t, "lookup", "r519", "I10")
	require.NoError(t, err)
	assert.Contains(t, out, "Headache, unspecified")
	assert.Contains(t, out, "Essential (primary) hypertension")

	out, err = runCLICommand(t, "lookup", "--json", "I10", "Z99.99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Z99.99")

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "I10", entries[0]["code"])
}

func TestValidateCommand(t *testing.T) {
	out, err := runCLICommand(t, "validate", "E119", "I10")
	require.NoError(t, err)
	assert.Contains(t, out, "E11.9")

	out, err = runCLICommand(t, "validate", "--json", "I10", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "Invalid ICD-10 code format")
}

func TestBenchCommand(t *testing.T) {
	out, err := runCLICommand(t, "bench", "-n", "3", "headache", "cough", "knee pain")
	require.NoError(t, err)
	assert.Contains(t, out, "PER CONCEPT")
	assert.Contains(t, out, "catalog entries: 34")
	// passes 2 and 3 are served from cache
	assert.Contains(t, out, "6 hits, 3 misses")
	assert.Contains(t, out, "catalog: "+testCatalog)

	out, err = runCLICommand(t, "bench", "--cold", "-n", "3", "headache", "cough", "knee pain")
	require.NoError(t, err)
	assert.Contains(t, out, "0 hits, 3 misses", "every pass starts from an empty cache")

	out, err = runCLICommand(t, "bench", "--metrics", "cough")
	require.NoError(t, err)
	assert.Contains(t, out, "conceptmap_lookups_total")
	assert.Contains(t, out, "conceptmap_cache_misses_total 1")

	_, err = runCLICommand(t, "bench", "-n", "0", "cough")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	catalogPath, err := filepath.Abs(testCatalog)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".conceptmap.toml")
	content := fmt.Sprintf("[catalog]\npath = %q\n\n[ranking]\ntop_k = 1\n", catalogPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var stdout, stderr bytes.Buffer
	err = newApp(&stdout, &stderr).Run([]string{"conceptmap", "--config", path, "--log-level", "error", "map", "--json", "headache"})
	require.NoError(t, err)

	var got []conceptOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Len(t, got[0].Results, 1)
}
