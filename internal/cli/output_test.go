package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/skills"
)

func sampleSearch() *models.SearchResponse {
	return &models.SearchResponse{
		Query: "python",
		Results: []*models.SearchResult{
			{
				ResumeID:       "r1",
				Title:          "Data Scientist",
				Snippet:        "...built ML\npipelines in Python...",
				RelevanceScore: 112,
				Candidate:      models.Candidate{Name: "Alice", Email: "alice@example.com"},
			},
		},
		TotalMatches: 1,
	}
}

func sampleMatch() *models.MatchResponse {
	return &models.MatchResponse{
		Job: models.JobRef{ID: "j1", Title: "Backend Engineer", Company: "Acme"},
		Matches: []*models.MatchResult{
			{
				ResumeID:            "r1",
				Candidate:           models.Candidate{Name: "Alice", Email: "alice@example.com", ResumeTitle: "cv"},
				MatchScore:          67,
				MissingRequirements: []string{"c++"},
				Evidence:            []string{"Five years of React"},
				Strengths:           []string{"react", "aws"},
			},
			{
				ResumeID:            "r2",
				Candidate:           models.Candidate{Email: "bob@example.com"},
				MatchScore:          0,
				MissingRequirements: []string{"node.js", "aws", "c++"},
				Evidence:            []string{},
				Strengths:           []string{},
			},
		},
		TotalCandidates: 4,
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, sampleSearch(), OutputJSON))
	var decoded models.SearchResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "python", decoded.Query)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, 112, decoded.Results[0].RelevanceScore)
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, sampleSearch(), OutputText))
	out := buf.String()
	for _, sub := range []string{`Found 1 results for "python"`, "Rank: 1 | Relevance: 112", "ID: r1", "Data Scientist", "Alice <alice@example.com>", "built ML pipelines in Python"} {
		assert.Contains(t, out, sub)
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, &models.SearchResponse{Query: "x", Results: []*models.SearchResult{}}, OutputFormat("yaml")))
	assert.Contains(t, buf.String(), "Found 0 results")
}

func TestWriteMatchResults_text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatchResults(&buf, sampleMatch(), skills.DefaultTable(), OutputText))
	out := buf.String()
	for _, sub := range []string{
		"Top 2 of 4 candidates for Backend Engineer @ Acme",
		"Rank: 1 | Match: 67%",
		"Resume: r1 (cv)",
		"Strengths: React, AWS",
		"Missing:   C++",
		"> Five years of React",
		"Candidate: bob@example.com",
		"Strengths: -",
	} {
		assert.Contains(t, out, sub)
	}
}

func TestWriteMatchResults_JSONKeepsTokens(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatchResults(&buf, sampleMatch(), nil, OutputJSON))
	assert.True(t, strings.Contains(buf.String(), `"react"`))
}

func TestWriteMatchXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatchXLSX(&buf, sampleMatch(), skills.DefaultTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(shortlistSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, shortlistHeader, rows[0])
	assert.Equal(t, []string{"1", "r1", "cv", "Alice", "alice@example.com", "67", "React, AWS", "C++", "Five years of React"}, rows[1])
	assert.Equal(t, "r2", rows[2][1])
	assert.Equal(t, "-", rows[2][6])
}

func TestWriteMatchXLSX_empty(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.MatchResponse{Job: models.JobRef{ID: "j"}, Matches: []*models.MatchResult{}}
	require.NoError(t, WriteMatchXLSX(&buf, resp, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(shortlistSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
