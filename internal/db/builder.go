package db

import (
	"strconv"
	"strings"
)

// FieldOption tweaks a schema field added through IndexBuilder.
type FieldOption func(*IndexField)

// Weight sets the relevance weight of a TEXT field.
func Weight(w float64) FieldOption {
	return func(f *IndexField) { f.TextWeight = w }
}

// NoStem indexes a TEXT field verbatim.
func NoStem() FieldOption {
	return func(f *IndexField) { f.NoStem = true }
}

// Sortable marks the field SORTABLE.
func Sortable() FieldOption {
	return func(f *IndexField) { f.Sortable = true }
}

// As exposes the field under another name in queries.
func As(alias string) FieldOption {
	return func(f *IndexField) { f.Alias = alias }
}

// Separator sets the TAG separator character.
func Separator(sep string) FieldOption {
	return func(f *IndexField) { f.TagSeparator = sep }
}

// CaseSensitive keeps TAG values case sensitive.
func CaseSensitive() FieldOption {
	return func(f *IndexField) { f.TagCaseSensitive = true }
}

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building a HASH-backed FT index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, StorageType: StorageHash}}
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Language selects the stemming language.
func (b *IndexBuilder) Language(lang string) *IndexBuilder {
	b.def.Language = lang
	return b
}

// NoStopwords disables the server stop-word list.
func (b *IndexBuilder) NoStopwords() *IndexBuilder {
	b.def.NoStopwords = true
	return b
}

// Text adds a TEXT field.
func (b *IndexBuilder) Text(name string, opts ...FieldOption) *IndexBuilder {
	return b.field(name, IndexFieldText, opts)
}

// Tag adds a TAG field.
func (b *IndexBuilder) Tag(name string, opts ...FieldOption) *IndexBuilder {
	return b.field(name, IndexFieldTag, opts)
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string, opts ...FieldOption) *IndexBuilder {
	return b.field(name, IndexFieldNumeric, opts)
}

func (b *IndexBuilder) field(name string, typ IndexFieldType, opts []FieldOption) *IndexBuilder {
	f := IndexField{Name: name, Type: typ}
	for _, opt := range opts {
		opt(&f)
	}
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Prefixes = append([]string(nil), b.def.Prefixes...)
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// CreateArgs renders the FT.CREATE arguments following the command name.
// The definition is assumed valid.
func (idx *IndexDefinition) CreateArgs() []string {
	storage := idx.StorageType
	if storage == "" {
		storage = StorageHash
	}
	args := []string{idx.Name, "ON", string(storage)}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	if idx.Language != "" {
		args = append(args, "LANGUAGE", idx.Language)
	}
	if idx.NoStopwords {
		args = append(args, "STOPWORDS", "0")
	}
	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = append(args, idx.Fields[i].schemaArgs()...)
	}
	return args
}

func (f *IndexField) schemaArgs() []string {
	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}
	args = append(args, f.Type.String())
	switch f.Type {
	case IndexFieldText:
		if f.TextWeight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'g', -1, 64))
		}
		if f.NoStem {
			args = append(args, "NOSTEM")
		}
	case IndexFieldTag:
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args
}

// String returns the FT.CREATE command as a single line.
func (idx *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(idx.CreateArgs(), " ")
}
