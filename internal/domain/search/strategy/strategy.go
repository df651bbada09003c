package strategy

// Kind is a candidate-generation strategy the caller can opt into.
type Kind string

// Strategy kinds, in the order the orchestrator runs and merges them.
const (
	// Semantic matches the text query against AI descriptions and tags.
	Semantic Kind = "semantic"
	// Visual finds records sharing the reference image's scene classification.
	Visual Kind = "visual"
	// Color matches a color query against record tags.
	Color Kind = "color"
	// Scene matches records by exact scene classification.
	Scene Kind = "scene"
)

// All lists every kind in canonical order.
var All = []Kind{Semantic, Visual, Color, Scene}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Semantic || k == Visual || k == Color || k == Scene
}

// Set is an ordered, duplicate-free selection of kinds.
type Set struct {
	kinds []Kind
}

// NewSet normalizes kinds into canonical order, dropping duplicates.
// Unknown kinds are reported by IsValid on the caller side; NewSet keeps only valid ones.
func NewSet(kinds ...Kind) Set {
	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		seen[k] = true
	}
	out := make([]Kind, 0, len(seen))
	for _, k := range All {
		if seen[k] {
			out = append(out, k)
		}
	}
	return Set{kinds: out}
}

// Infer selects kinds from which query inputs are populated.
// Used by transports whose callers did not name strategies explicitly.
func Infer(query, imageID, colorQuery, sceneType string) Set {
	var kinds []Kind
	if query != "" {
		kinds = append(kinds, Semantic)
	}
	if imageID != "" {
		kinds = append(kinds, Visual)
	}
	if colorQuery != "" {
		kinds = append(kinds, Color)
	}
	if sceneType != "" {
		kinds = append(kinds, Scene)
	}
	return NewSet(kinds...)
}

// Kinds returns the selected kinds in canonical order.
func (s Set) Kinds() []Kind { return s.kinds }

// Has reports whether k is selected.
func (s Set) Has(k Kind) bool {
	for _, x := range s.kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Len returns the number of selected kinds.
func (s Set) Len() int { return len(s.kinds) }

// IsEmpty reports whether nothing is selected.
func (s Set) IsEmpty() bool { return len(s.kinds) == 0 }
