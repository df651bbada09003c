package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/imgdex/internal/domain"
)

// Attribute is a structural image attribute that can be requested as a filter.
type Attribute string

// Filterable attributes.
const (
	Format      Attribute = "format"
	Resolution  Attribute = "resolution"
	Orientation Attribute = "orientation"
	Category    Attribute = "category"
)

// MaxValueLength bounds a single filter value.
const MaxValueLength = 64

var known = map[Attribute]bool{Format: true, Resolution: true, Orientation: true, Category: true}

// IsValid checks if the attribute is filterable.
func (a Attribute) IsValid() bool { return known[a] }

// Condition is a single exact-match clause on an attribute (case-insensitive).
type Condition struct {
	attr  Attribute
	value string
}

// NewMatch creates an exact match condition.
func NewMatch(attr Attribute, value string) (Condition, error) {
	if !attr.IsValid() {
		return Condition{}, invalid("unknown filter attribute %q", attr)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Condition{}, invalid("match value is required for %q", attr)
	}
	if len(value) > MaxValueLength {
		return Condition{}, invalid("filter value for %q too long (max %d)", attr, MaxValueLength)
	}
	return Condition{attr: attr, value: strings.ToLower(value)}, nil
}

// Attribute returns the filtered attribute.
func (c Condition) Attribute() Attribute { return c.attr }

// Value returns the lowercased expected value.
func (c Condition) Value() string { return c.value }

// Matches reports whether actual equals the expected value, ignoring case.
func (c Condition) Matches(actual string) bool {
	return actual != "" && strings.EqualFold(strings.TrimSpace(actual), c.value)
}

// Set is a collection of conditions, at most one per attribute.
type Set struct {
	conditions []Condition
}

// New builds a Set from an attribute→value map. Empty values are skipped.
func New(values map[string]string) (Set, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(values[k]) == "" {
			continue
		}
		c, err := NewMatch(Attribute(k), values[k])
		if err != nil {
			return Set{}, err
		}
		conds = append(conds, c)
	}
	return Set{conditions: conds}, nil
}

// Conditions returns the conditions ordered by attribute name.
func (s Set) Conditions() []Condition { return s.conditions }

// Get returns the condition for attr, if present.
func (s Set) Get(attr Attribute) (Condition, bool) {
	for _, c := range s.conditions {
		if c.attr == attr {
			return c, true
		}
	}
	return Condition{}, false
}

// IsEmpty reports whether the set has no conditions.
func (s Set) IsEmpty() bool { return len(s.conditions) == 0 }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, fmt.Sprintf(format, args...))
}
