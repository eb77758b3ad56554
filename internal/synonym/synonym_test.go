package synonym

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
)

func testCatalog(t *testing.T) *catalog.Index {
	t.Helper()
	cat, err := catalog.Load("../catalog/testdata/catalog.csv")
	require.NoError(t, err)
	return cat
}

func linkedCodes(cat *catalog.Index, g *Group) []string {
	out := make([]string, len(g.Links))
	for i, id := range g.Links {
		out[i] = cat.At(id).Code
	}
	return out
}

func TestLoadConditionJSON(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/conditions.json"})
	require.NoError(t, err)

	assert.Equal(t, 4, ix.Len())

	g, ok := ix.Lookup("sugar sickness")
	require.True(t, ok)
	assert.Equal(t, "diabetes", g.CanonicalKey)
	assert.Equal(t, []string{"E11.9", "E11.65"}, linkedCodes(cat, g))

	// The canonical key is a term too
	g, ok = ix.Lookup("diabetes")
	require.True(t, ok)
	assert.Equal(t, "diabetes", g.CanonicalKey)

	// G43.9 is not in the catalog and is dropped
	g, ok = ix.Lookup("cephalalgia")
	require.True(t, ok)
	assert.Equal(t, []string{"R51.9", "R51.0"}, linkedCodes(cat, g))

	g, ok = ix.Lookup("htn")
	require.True(t, ok)
	assert.Equal(t, []string{"I10"}, linkedCodes(cat, g))
}

func TestUnlinkedGroupResolvesThroughCatalog(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/conditions.json"})
	require.NoError(t, err)

	g, ok := ix.Lookup("pyrexia")
	require.True(t, ok)
	assert.Equal(t, []string{"R50.9"}, linkedCodes(cat, g))
}

func TestLookupStemFallback(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/conditions.json"})
	require.NoError(t, err)

	g, ok := ix.Lookup("sugar blood")
	require.True(t, ok)
	assert.Equal(t, "diabetes", g.CanonicalKey)

	_, ok = ix.Lookup("broken arm")
	assert.False(t, ok)
	_, ok = ix.Lookup("")
	assert.False(t, ok)
}

func TestExclusionsNormalized(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/conditions.json", "testdata/symptoms.kdl"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ibuprofen", "tylenol", "acetaminophen", "aspirin", "medication", "metformin", "lisinopril"}, ix.Exclusions())
}

func TestTermConflictFirstGroupWins(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/groups.json"})
	require.NoError(t, err)

	assert.Equal(t, 2, ix.Len())

	g, ok := ix.Lookup("worried")
	require.True(t, ok)
	assert.Equal(t, "anxiety", g.CanonicalKey)

	g, ok = ix.Lookup("worry")
	require.True(t, ok)
	assert.Equal(t, []string{"F41.1"}, linkedCodes(cat, g))
}

func TestLoadCSV(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/respiratory.csv"})
	require.NoError(t, err)

	g, ok := ix.Lookup("dyspnea")
	require.True(t, ok)
	assert.Equal(t, "shortness of breath", g.CanonicalKey)
	assert.Equal(t, []string{"R06.02"}, linkedCodes(cat, g))

	g, ok = ix.Lookup("reactive airway")
	require.True(t, ok)
	assert.Equal(t, []string{"J45.909"}, linkedCodes(cat, g), "unknown J99.99 is dropped")
}

func TestLoadKDL(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/symptoms.kdl"})
	require.NoError(t, err)

	assert.Equal(t, 2, ix.Len())

	g, ok := ix.Lookup("queasy")
	require.True(t, ok)
	assert.Equal(t, []string{"R11.0"}, linkedCodes(cat, g))

	g, ok = ix.Lookup("acid reflux")
	require.True(t, ok)
	assert.Equal(t, "reflux", g.CanonicalKey)
}

func TestLoadGlob(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/*.{csv,kdl}"})
	require.NoError(t, err)

	assert.Equal(t, 4, ix.Len())
	_, ok := ix.Lookup("heartburn")
	assert.True(t, ok)
	_, ok = ix.Lookup("sob")
	assert.True(t, ok)
}

func TestExpandSources(t *testing.T) {
	paths, err := ExpandSources([]string{"testdata/*.json", "testdata/groups.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/broken.json", "testdata/conditions.json", "testdata/groups.json"}, paths)

	_, err = ExpandSources(nil)
	assert.True(t, errors.Is(err, cmerrors.ErrNoSources))
}

func TestExpandSourcesReportsEveryMissingPattern(t *testing.T) {
	_, err := ExpandSources([]string{"testdata/missing-a.json", "testdata/*.json", "testdata/missing-b/**/*.kdl"})
	require.Error(t, err)

	var multi *cmerrors.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 2)
	assert.Contains(t, err.Error(), "missing-a.json")
	assert.Contains(t, err.Error(), "missing-b")

	var synErr *cmerrors.SynonymLoadError
	assert.True(t, errors.As(err, &synErr))
	assert.True(t, errors.Is(err, cmerrors.ErrNoSources))
}

func TestLoadErrors(t *testing.T) {
	cat := testCatalog(t)

	t.Run("no matching files", func(t *testing.T) {
		_, err := Load(cat, []string{"testdata/missing/*.json"})
		var synErr *cmerrors.SynonymLoadError
		require.True(t, errors.As(err, &synErr))
		assert.True(t, synErr.IsRecoverable())
		assert.True(t, errors.Is(err, cmerrors.ErrNoSources))
		assert.False(t, cmerrors.IsFatal(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Load(cat, []string{"testdata/broken.json"})
		assert.True(t, errors.Is(err, cmerrors.ErrMalformedInput))
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := ReadFile("testdata/synonyms.yaml")
		assert.True(t, errors.Is(err, cmerrors.ErrUnknownFormat))
	})

	t.Run("group without key", func(t *testing.T) {
		_, err := Parse("inline", strings.NewReader(`group { terms "x" }`), FormatKDL)
		assert.True(t, errors.Is(err, cmerrors.ErrMalformedInput))
	})
}

func TestBuildSkipsEmptyGroups(t *testing.T) {
	cat := testCatalog(t)
	ix := Build(cat, []*Document{{
		Source: "inline",
		Groups: []RawGroup{
			{CanonicalKey: "", Terms: []string{"orphan"}, LinkedCodes: []string{"R51.9"}},
			{CanonicalKey: "martian flu", LinkedCodes: []string{"X99.99"}},
			{CanonicalKey: "no codes and no catalog match"},
		},
	}})
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.TermCount())
}

func TestNilIndex(t *testing.T) {
	var ix *Index
	_, ok := ix.Lookup("headache")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())
	assert.Nil(t, ix.Exclusions())
}

func TestEachVisitsGroupsInOrder(t *testing.T) {
	cat := testCatalog(t)
	ix, err := Load(cat, []string{"testdata/conditions.json"})
	require.NoError(t, err)

	var keys []string
	ix.Each(func(g *Group) bool {
		keys = append(keys, g.CanonicalKey)
		return true
	})
	assert.Equal(t, []string{"diabetes", "fever", "headache", "hypertension"}, keys)

	visited := 0
	ix.Each(func(*Group) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
