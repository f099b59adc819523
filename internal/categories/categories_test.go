package categories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyCategoriesNormalizesLookup(t *testing.T) {
	cats, err := Default().Categories(" Software ", "DISCOVERY")
	require.NoError(t, err)
	require.Contains(t, cats, "goals")

	cats["goals"] = 99
	again, err := Default().Categories("software", "discovery")
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, again["goals"], "Categories must return a copy")
}

func TestVocabularyUnknownDomainAndPhase(t *testing.T) {
	_, err := Default().Categories("cooking", "discovery")
	assert.ErrorIs(t, err, ErrUnknownDomain)

	_, err = Default().Categories("software", "retirement")
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestUnknownDomainErrorListsKnownDomains(t *testing.T) {
	vocab := Vocabulary{Domains: map[string]map[string]map[string]float64{
		"software":  {"discovery": {"goals": 1}},
		"marketing": {"launch": {"audience": 1}},
	}}
	_, err := vocab.Categories("cooking", "discovery")
	require.ErrorIs(t, err, ErrUnknownDomain)
	assert.Contains(t, err.Error(), "known: marketing, software")
}

func TestParseVocabularyYAMLAndMerge(t *testing.T) {
	vocab, err := ParseVocabularyYAML([]byte(`
domains:
  Marketing:
    Launch:
      audience: 0.5
      channels: 0.5
`))
	require.NoError(t, err)

	merged := Default().Merge(vocab)
	cats, err := merged.Categories("marketing", "launch")
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	_, err = merged.Categories("software", "discovery")
	assert.NoError(t, err, "merge must keep defaults")

	names := merged.DomainNames()
	require.Len(t, names, 3)
	assert.Equal(t, "marketing", names[0])
}

func TestParseVocabularyRejectsNegativeWeights(t *testing.T) {
	_, err := ParseVocabularyYAML([]byte("domains: {d: {p: {c: -1}}}"))
	assert.Error(t, err)
}

func TestCoverageSatisfied(t *testing.T) {
	cov := Coverage{"goals": 0.2, "scope": 0.05}
	assert.True(t, cov.Satisfied("goals", 0.2))
	assert.False(t, cov.Satisfied("scope", 0.15))
	assert.False(t, cov.Satisfied("goals", 0), "zero target must not count as satisfied")
}

func TestLoadCoverageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("goals: 0.2\nscope: 0.1\n"), 0o644))

	cov, err := LoadCoverageFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cov["scope"])
}
