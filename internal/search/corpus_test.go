package search

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/resumerag/internal/keyword"
	"github.com/hyperjump/resumerag/internal/models"
)

// memStore is an in-memory CorpusStore over a fixed, creation-ordered slice.
type memStore struct {
	docs []*models.Document
}

func (m *memStore) Corpus(context.Context) ([]*models.Document, error) {
	return append([]*models.Document{}, m.docs...), nil
}

func (m *memStore) CorpusContaining(_ context.Context, q string) ([]*models.Document, error) {
	out := []*models.Document{}
	for _, d := range m.docs {
		if strings.Contains(strings.ToLower(d.Content), strings.ToLower(q)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) CorpusByIDs(_ context.Context, ids []string) ([]*models.Document, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []*models.Document{}
	for _, d := range m.docs {
		if want[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func selectorFixture(t *testing.T) (*memStore, keyword.Index) {
	t.Helper()
	store := &memStore{docs: []*models.Document{
		{ID: "r1", Title: "One", Content: "Senior Python developer"},
		{ID: "r2", Title: "Two", Content: "Go and Kubernetes"},
		{ID: "r3", Title: "Three", Content: "python scripting, go tooling"},
	}}
	kw, err := keyword.NewMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kw.Close() })
	for _, d := range store.docs {
		if err := kw.Index(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	return store, kw
}

func TestSelector_Select(t *testing.T) {
	store, kw := selectorFixture(t)
	tests := []struct {
		mode  string
		query string
		want  []string
	}{
		{PrefilterNone, "python developer", []string{"r1", "r2", "r3"}},
		{"", "anything", []string{"r1", "r2", "r3"}},
		{PrefilterSubstring, "PYTHON", []string{"r1", "r3"}},
		{PrefilterSubstring, "python developer", []string{"r1"}},
		{PrefilterKeyword, "kubernetes python", []string{"r1", "r2", "r3"}},
		{PrefilterKeyword, "tooling", []string{"r3"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.query, func(t *testing.T) {
			docs, err := NewSelector(store, kw, tt.mode, 100).Select(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			got := make([]string, len(docs))
			for i, d := range docs {
				got[i] = d.ID
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelector_Errors(t *testing.T) {
	store, _ := selectorFixture(t)
	if _, err := NewSelector(store, nil, PrefilterKeyword, 10).Select(context.Background(), "go"); err == nil {
		t.Error("keyword prefilter without an index: expected error")
	}
	if _, err := NewSelector(store, nil, "fuzzy", 10).Select(context.Background(), "go"); err == nil {
		t.Error("unknown prefilter: expected error")
	}
}
