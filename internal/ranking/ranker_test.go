package ranking

import (
	"reflect"
	"testing"
)

func scored(pairs ...interface{}) []Scored[string] {
	var out []Scored[string]
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Scored[string]{Item: pairs[i].(string), Score: pairs[i+1].(int)})
	}
	return out
}

func TestRank_StableOnTies(t *testing.T) {
	in := scored("a", 10, "b", 30, "c", 10, "d", 30, "e", 0)
	got := Items(Rank(in))
	want := []string{"b", "d", "a", "c", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
	if in[0].Item != "a" || in[1].Item != "b" {
		t.Error("Rank must not reorder its input")
	}
}

func TestTopK(t *testing.T) {
	in := scored("a", 1, "b", 3, "c", 2)
	tests := []struct {
		name string
		k    int
		want []string
	}{
		{"zero", 0, []string{}},
		{"negative", -2, []string{}},
		{"one", 1, []string{"b"}},
		{"all", 3, []string{"b", "c", "a"}},
		{"more than available", 10, []string{"b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopK(in, tt.k)
			if got == nil {
				t.Fatal("TopK returned nil")
			}
			if items := Items(got); !reflect.DeepEqual(items, tt.want) {
				t.Errorf("TopK(%d) = %v, want %v", tt.k, items, tt.want)
			}
		})
	}
}

func TestTopK_LengthIsMinOfKAndN(t *testing.T) {
	in := scored("a", 5, "b", 5, "c", 5, "d", 5)
	for k := 0; k <= 6; k++ {
		want := k
		if want > len(in) {
			want = len(in)
		}
		if got := len(TopK(in, k)); got != want {
			t.Errorf("len(TopK(%d)) = %d, want %d", k, got, want)
		}
	}
}

func TestTopK_Empty(t *testing.T) {
	if got := TopK([]Scored[string]{}, 5); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}
