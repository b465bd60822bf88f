package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_DefaultTable(t *testing.T) {
	e := NewDefaultExtractor()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"no skills", "Enjoys hiking and cooking", []string{}},
		{"python developer", "Python developer", []string{"python"}},
		{"category order wins over text order", "Docker and Python", []string{"python", "docker"}},
		{"dedupes case variants", "python PYTHON Python", []string{"python"}},
		{"node variants", "Node.js and NodeJS", []string{"js", "node.js", "nodejs"}},
		{"multi-word", "machine learning and data science", []string{"machine learning", "data science"}},
		{"experience markers", "5 years experience, expert in SQL", []string{"sql", "years", "experience", "expert"}},
		{"word boundary", "Javanese Gopher", []string{}},
		{"sql and nosql", "SQL, NoSQL", []string{"sql", "nosql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := NewDefaultExtractor()
	text := "Senior Go engineer with Kubernetes, AWS and PostgreSQL experience."
	assert.Equal(t, e.Extract(text), e.Extract(text))
}

func TestExtract_UnionIsSuperset(t *testing.T) {
	e := NewDefaultExtractor()
	a := "Python and Django"
	b := "React with TypeScript on AWS"
	union := e.Extract(a + " " + b)
	for _, tok := range append(e.Extract(a), e.Extract(b)...) {
		assert.Contains(t, union, tok)
	}
}

func TestNewExtractor_RejectsBadTable(t *testing.T) {
	tests := []struct {
		name  string
		table Table
	}{
		{"empty", Table{}},
		{"no name", Table{Categories: []Category{{Alternatives: []string{"Go"}}}}},
		{"no alternatives", Table{Categories: []Category{{Name: "x"}}}},
		{"bad regex", Table{Categories: []Category{{Name: "x", Alternatives: []string{"C++"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(tt.table)
			assert.Error(t, err)
		})
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.yaml")
	data := []byte(`categories:
  - name: databases
    alternatives: ["PostgreSQL", "Mongo(?:DB)?"]
  - name: languages
    alternatives: ["Go", "Elixir"]
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Len(t, table.Categories, 2)

	e, err := NewExtractor(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"mongo", "elixir"}, e.Extract("Elixir services on Mongo"))
}

func TestLoadTable_Missing(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		token, want string
	}{
		{"c++", "C++"},
		{"c#", "C#"},
		{"postgresql", "PostgreSQL"},
		{"machine learning", "Machine Learning"},
		{"node.js", "node.js"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.DisplayName(tt.token), tt.token)
	}
}
