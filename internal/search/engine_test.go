package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/hyperjump/resumerag/internal/models"
)

func corpus() []*models.Document {
	return []*models.Document{
		{ID: "1", Title: "Frontend", Content: "React and TypeScript", Owner: models.UserRef{Name: "Ann", Email: "ann@example.com"}},
		{ID: "2", Title: "Backend", Content: "Python services, Python tooling", Owner: models.UserRef{Name: "Bob", Email: "bob@example.com"}},
		{ID: "3", Title: "Data", Content: "python developer with pandas", Owner: models.UserRef{Name: "Cy", Email: "cy@example.com"}},
		{ID: "4", Title: "Ops", Content: "", Owner: models.UserRef{Name: "Di", Email: "di@example.com"}},
	}
}

func TestEngine_Search(t *testing.T) {
	e := NewEngine(WithWorkers(2))
	resp, err := e.Search(context.Background(), "python developer", 3, corpus())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Query != "python developer" {
		t.Errorf("Query = %q", resp.Query)
	}
	if resp.TotalMatches != len(resp.Results) {
		t.Errorf("TotalMatches = %d, len(Results) = %d", resp.TotalMatches, len(resp.Results))
	}

	// Zero-score ties keep corpus order.
	want := []struct {
		id    string
		score int
	}{
		{"3", 120},
		{"2", 20},
		{"1", 0},
	}
	if len(resp.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(resp.Results), len(want))
	}
	for i, w := range want {
		r := resp.Results[i]
		if r.ResumeID != w.id || r.RelevanceScore != w.score {
			t.Errorf("result %d = (%s, %d), want (%s, %d)", i, r.ResumeID, r.RelevanceScore, w.id, w.score)
		}
	}
	if c := resp.Results[0].Candidate; c.Name != "Cy" || c.Email != "cy@example.com" {
		t.Errorf("Candidate = %+v", c)
	}
}

func TestEngine_SearchLengthIsMinOfKAndCorpus(t *testing.T) {
	e := NewEngine()
	docs := corpus()
	for k := 0; k <= 6; k++ {
		resp, err := e.Search(context.Background(), "python", k, docs)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if resp.Results == nil {
			t.Errorf("k=%d: Results is nil", k)
		}
		if got, want := len(resp.Results), min(k, len(docs)); got != want {
			t.Errorf("k=%d: got %d results, want %d", k, got, want)
		}
	}
}

func TestEngine_SearchEmptyCorpus(t *testing.T) {
	resp, err := NewEngine().Search(context.Background(), "python", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 || resp.TotalMatches != 0 {
		t.Errorf("got %d results, TotalMatches %d", len(resp.Results), resp.TotalMatches)
	}
}

func TestEngine_SearchValidation(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		k       int
		wantErr bool
	}{
		{"empty query", "", 5, true},
		{"negative k", "go", -1, true},
		{"whitespace query is scored", "   ", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewEngine().Search(context.Background(), tt.query, tt.k, corpus())
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidArgument) {
					t.Errorf("error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(resp.Results) != tt.k {
				t.Errorf("got %d results, want %d", len(resp.Results), tt.k)
			}
		})
	}
}

func TestEngine_SearchDeterministic(t *testing.T) {
	var docs []*models.Document
	for i := 0; i < 200; i++ {
		docs = append(docs, &models.Document{
			ID:      fmt.Sprintf("d%03d", i),
			Title:   "Resume",
			Content: fmt.Sprintf("engineer %d with go", i%7),
		})
	}
	e := NewEngine(WithWorkers(8))
	first, err := e.Search(context.Background(), "engineer 3", 50, docs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Search(context.Background(), "engineer 3", 50, docs)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from the first run", i)
		}
	}
}

func TestEngine_SearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := NewEngine().Search(ctx, "python", 5, corpus())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if resp != nil {
		t.Errorf("resp = %+v, want nil", resp)
	}
}
