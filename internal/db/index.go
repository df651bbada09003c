package db

import (
	"errors"
	"fmt"
)

// ErrInvalidIndex wraps every index definition validation failure.
var ErrInvalidIndex = errors.New("db: invalid index definition")

// StorageType defines the document storage backend for FT indexes.
type StorageType string

// StorageHash stores documents as Redis hashes.
const StorageHash StorageType = "HASH"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field.
	IndexFieldTag
	// IndexFieldText is a text field.
	IndexFieldText
)

// String returns the FT.CREATE keyword of the field type.
func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name  string
	Alias string
	Type  IndexFieldType

	TagSeparator     string
	TagCaseSensitive bool

	// TextWeight of 0 keeps the server default (1.0).
	TextWeight float64
	// NoStem disables stemming, so "running" no longer matches "run".
	NoStem bool

	Sortable bool
}

// key is the name the field is addressed by in queries.
func (f *IndexField) key() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (f *IndexField) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidIndex)
	}
	switch f.Type {
	case IndexFieldNumeric, IndexFieldTag, IndexFieldText:
	default:
		return fmt.Errorf("%w: unknown type for field %s", ErrInvalidIndex, f.key())
	}
	if f.Type != IndexFieldText && (f.TextWeight != 0 || f.NoStem) {
		return fmt.Errorf("%w: text options on %s field %s", ErrInvalidIndex, f.Type, f.key())
	}
	if f.TextWeight < 0 {
		return fmt.Errorf("%w: negative weight on field %s", ErrInvalidIndex, f.key())
	}
	if f.Type != IndexFieldTag && (f.TagSeparator != "" || f.TagCaseSensitive) {
		return fmt.Errorf("%w: tag options on %s field %s", ErrInvalidIndex, f.Type, f.key())
	}
	if len(f.TagSeparator) > 1 {
		return fmt.Errorf("%w: tag separator must be one character on field %s", ErrInvalidIndex, f.key())
	}
	return nil
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	// Language selects the stemmer; empty keeps the server default (english).
	Language string
	// NoStopwords indexes every word, including "the" and "of".
	NoStopwords bool
	Fields      []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return fmt.Errorf("%w: index name is required", ErrInvalidIndex)
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("%w: index name %q contains invalid characters", ErrInvalidIndex, idx.Name)
	}
	if len(idx.Fields) == 0 {
		return fmt.Errorf("%w: at least one field is required", ErrInvalidIndex)
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if err := f.validate(); err != nil {
			return err
		}
		if _, dup := seen[f.key()]; dup {
			return fmt.Errorf("%w: duplicate field %s", ErrInvalidIndex, f.key())
		}
		seen[f.key()] = struct{}{}
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
