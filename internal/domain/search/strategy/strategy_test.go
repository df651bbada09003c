package strategy

import "testing"

func TestIsValid(t *testing.T) {
	for _, k := range All {
		if !k.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", k)
		}
	}
	for _, k := range []Kind{"", "text", "Visual", "hybrid"} {
		if k.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", k)
		}
	}
}

func TestNewSet_CanonicalOrderAndDedup(t *testing.T) {
	s := NewSet(Scene, Semantic, Scene, Color)
	got := s.Kinds()
	want := []Kind{Semantic, Color, Scene}
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if s.Has(Visual) {
		t.Error("Has(Visual) = true")
	}
	if !s.Has(Color) {
		t.Error("Has(Color) = false")
	}
}

func TestNewSet_DropsUnknown(t *testing.T) {
	s := NewSet("bogus", Visual)
	if s.Len() != 1 || !s.Has(Visual) {
		t.Errorf("Kinds() = %v", s.Kinds())
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name                        string
		query, image, color, scene string
		want                        []Kind
	}{
		{"text only", "sunset", "", "", "", []Kind{Semantic}},
		{"image only", "", "img-1", "", "", []Kind{Visual}},
		{"color and scene", "", "", "blue", "beach", []Kind{Color, Scene}},
		{"everything", "cat", "img-1", "red", "indoor", All},
		{"nothing", "", "", "", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Infer(tc.query, tc.image, tc.color, tc.scene).Kinds()
			if len(got) != len(tc.want) {
				t.Fatalf("Infer() = %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("Infer()[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestSet_Empty(t *testing.T) {
	var s Set
	if !s.IsEmpty() {
		t.Error("zero Set should be empty")
	}
}
