package models

import "testing"

func TestNewPairKey(t *testing.T) {
	t.Run("canonical order", func(t *testing.T) {
		ab, err := NewPairKey("a.flac", "b.flac")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := NewPairKey("b.flac", "a.flac")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ab != ba {
			t.Errorf("expected %v == %v", ab, ba)
		}
		if ab.A != "a.flac" || ab.B != "b.flac" {
			t.Errorf("unexpected ordering: %v", ab)
		}
	})

	t.Run("self pair rejected", func(t *testing.T) {
		if _, err := NewPairKey("a.flac", "a.flac"); err == nil {
			t.Error("expected error for self pair")
		}
	})

	t.Run("Other", func(t *testing.T) {
		k, _ := NewPairKey("x", "y")
		if got := k.Other("x"); got != "y" {
			t.Errorf("Other(x) = %s, want y", got)
		}
		if got := k.Other("y"); got != "x" {
			t.Errorf("Other(y) = %s, want x", got)
		}
	})
}

func TestFeaturesVector(t *testing.T) {
	f := Features{Tempo: 100, Tempo1: 1, Tempo2: 2, Tempo3: 3, Amplitude: 0.5, Frequency: 50, Attack: 0.1}

	tc := []struct {
		name    string
		dims    Dimensions
		want    []float64
		wantErr bool
	}{
		{name: "four", dims: Dimensions4, want: []float64{100, 0.5, 50, 0.1}},
		{name: "six", dims: Dimensions6, want: []float64{1, 2, 3, 0.5, 50, 0.1}},
		{name: "unsupported", dims: 5, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Vector(tt.dims)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("component %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIDSet(t *testing.T) {
	var empty IDSet
	if empty.Has("a") {
		t.Error("nil set should be empty")
	}

	s := NewIDSet("a", "b")
	s.Add("c")
	for _, id := range []string{"a", "b", "c"} {
		if !s.Has(id) {
			t.Errorf("expected %s in set", id)
		}
	}
	if s.Has("d") {
		t.Error("unexpected member d")
	}
}
