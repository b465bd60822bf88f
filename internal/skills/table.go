// Package skills extracts normalized skill tokens from free text using an ordered
// table of skill categories.
package skills

import (
	"fmt"
	"os"
	"regexp"
	"regexp/syntax"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is a named group of alternatives. Each alternative is a regular expression
// fragment (e.g. `C\+\+` or `Node\.?js`), matched case-insensitively on word boundaries.
type Category struct {
	Name         string   `yaml:"name"`
	Alternatives []string `yaml:"alternatives"`
}

// Table is the ordered list of categories scanned by an Extractor. Order matters:
// it fixes the first-seen order of extracted tokens.
type Table struct {
	Categories []Category `yaml:"categories"`
}

// DefaultTable returns the built-in categories: languages, frameworks, infrastructure
// and tools, data science, and experience markers.
func DefaultTable() Table {
	return Table{Categories: []Category{
		{Name: "languages", Alternatives: []string{
			`JavaScript`, `JS`, `Python`, `Java`, `C\+\+`, `C#`, `PHP`, `Ruby`, `Go`, `Rust`, `Swift`, `Kotlin`, `TypeScript`,
		}},
		{Name: "frameworks", Alternatives: []string{
			`React`, `Angular`, `Vue`, `Node\.?js`, `Express`, `Django`, `Flask`, `Spring`, `Laravel`, `Rails`,
		}},
		{Name: "infrastructure", Alternatives: []string{
			`AWS`, `Azure`, `GCP`, `Docker`, `Kubernetes`, `Jenkins`, `Git`, `MongoDB`, `PostgreSQL`, `MySQL`, `Redis`,
		}},
		{Name: "data", Alternatives: []string{
			`Machine Learning`, `AI`, `Data Science`, `Analytics`, `Statistics`, `SQL`, `NoSQL`,
		}},
		{Name: "experience", Alternatives: []string{
			`years?`, `experience`, `skills?`, `proficient`, `expert`, `knowledge`, `familiar`,
		}},
	}}
}

// LoadTable reads a YAML skill table from path and validates it.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read skill table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("failed to parse skill table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate rejects tables with no categories, unnamed or empty categories, and
// alternatives that do not compile.
func (t Table) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("skill table has no categories")
	}
	for i, c := range t.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("skill category %d has no name", i)
		}
		if len(c.Alternatives) == 0 {
			return fmt.Errorf("skill category %q has no alternatives", c.Name)
		}
		for _, alt := range c.Alternatives {
			if strings.TrimSpace(alt) == "" {
				return fmt.Errorf("skill category %q has an empty alternative", c.Name)
			}
			if _, err := regexp.Compile(alt); err != nil {
				return fmt.Errorf("skill category %q: bad alternative %q: %w", c.Name, alt, err)
			}
		}
	}
	return nil
}

// DisplayName returns the table's spelling of an extracted token ("c++" -> "C++").
// Only alternatives that are plain literals are considered; otherwise the token is
// returned unchanged.
func (t Table) DisplayName(token string) string {
	for _, c := range t.Categories {
		for _, alt := range c.Alternatives {
			lit, ok := literal(alt)
			if ok && strings.EqualFold(lit, token) {
				return lit
			}
		}
	}
	return token
}

func literal(fragment string) (string, bool) {
	re, err := syntax.Parse(fragment, syntax.Perl)
	if err != nil {
		return "", false
	}
	re = re.Simplify()
	if re.Op != syntax.OpLiteral || re.Flags&syntax.FoldCase != 0 {
		return "", false
	}
	return string(re.Rune), true
}
