// Package backupconf implements the typed key/value store behind each
// backup's backup.conf file. Values live in a single INI section and are
// validated against a declared schema: a missing file yields schema
// defaults, and unknown or malformed values fall back to defaults rather
// than failing the load.
package backupconf

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Kind identifies the value type of a schema field.
type Kind int

const (
	// KindString is a free-form string.
	KindString Kind = iota
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBool is a yes/no boolean.
	KindBool
	// KindInt is an integer, optionally bounded below.
	KindInt
	// KindOption is a string restricted to a fixed set of choices.
	KindOption
)

// Field declares one schema entry: its type, default value and, depending
// on the kind, a lower bound or the allowed option values.
type Field struct {
	Name    string
	Kind    Kind
	Default string
	Min     int      // lower bound, KindInt only
	HasMin  bool     // whether Min applies
	Options []string // allowed values, KindOption only
}

// Schema is an ordered set of fields under one INI section.
type Schema struct {
	Section string
	Fields  []Field
}

// field returns the schema entry for name, or nil if name is not declared.
func (s Schema) field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// Store is a typed key/value store bound to a file path. All reads go
// through the schema: a value that is absent or does not parse as its
// declared kind resolves to the field default.
type Store struct {
	// Path is the file the store loads from and writes to.
	Path string

	schema Schema
	values map[string]string
}

// NewStore returns an empty store bound to path. No file access happens
// until Load or Write is called; call Validate to materialize defaults.
func NewStore(path string, schema Schema) *Store {
	return &Store{
		Path:   path,
		schema: schema,
		values: make(map[string]string),
	}
}

// Load reads the store's file, replacing the in-memory values with the
// file's section contents. A missing file is not an error: the store is
// reset and Validate fills in defaults. Unparseable file content is also
// tolerated the same way, with a suppressed warning.
func (s *Store) Load() error {
	s.values = make(map[string]string)
	f, err := ini.LooseLoad(s.Path)
	if err != nil {
		log.Debugf("ignoring unreadable config %s: %v", s.Path, err)
		return nil
	}
	sec := f.Section(s.schema.Section)
	for _, key := range sec.Keys() {
		s.values[key.Name()] = key.Value()
	}
	return nil
}

// Validate coerces every declared field to its schema kind, replacing
// values that are missing, malformed or out of range with the field
// default. Undeclared keys are left untouched.
func (s *Store) Validate() {
	for _, f := range s.schema.Fields {
		raw, ok := s.values[f.Name]
		if !ok {
			s.values[f.Name] = f.Default
			continue
		}
		s.values[f.Name] = f.normalize(raw)
	}
}

// normalize returns the canonical string form of raw under the field's
// kind, or the field default when raw does not conform.
func (f *Field) normalize(raw string) string {
	switch f.Kind {
	case KindString:
		return raw
	case KindFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return f.Default
		}
		return formatFloat(v)
	case KindBool:
		v, ok := parseBool(raw)
		if !ok {
			return f.Default
		}
		return formatBool(v)
	case KindInt:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || (f.HasMin && v < f.Min) {
			return f.Default
		}
		return strconv.Itoa(v)
	case KindOption:
		got := strings.TrimSpace(raw)
		for _, opt := range f.Options {
			if got == opt {
				return opt
			}
		}
		return f.Default
	}
	return raw
}

// Write persists the in-memory values to the store's file as an INI
// section. The parent directory must exist.
func (s *Store) Write() error {
	f := ini.Empty()
	sec, err := f.NewSection(s.schema.Section)
	if err != nil {
		return errors.Trace(err)
	}
	// Declared fields first, in schema order, then any extra keys.
	written := make(map[string]bool, len(s.values))
	for _, fld := range s.schema.Fields {
		if v, ok := s.values[fld.Name]; ok {
			if _, err := sec.NewKey(fld.Name, v); err != nil {
				return errors.Trace(err)
			}
			written[fld.Name] = true
		}
	}
	for name, v := range s.values {
		if written[name] {
			continue
		}
		if _, err := sec.NewKey(name, v); err != nil {
			return errors.Trace(err)
		}
	}
	if err := f.SaveTo(s.Path); err != nil {
		return errors.Annotatef(err, "writing config %s", s.Path)
	}
	return nil
}

// lookup resolves name to its raw value, falling back to the schema
// default for declared fields.
func (s *Store) lookup(name string) (string, *Field) {
	f := s.schema.field(name)
	if raw, ok := s.values[name]; ok {
		return raw, f
	}
	if f != nil {
		return f.Default, f
	}
	return "", nil
}

// String returns the string value of name, or the schema default.
func (s *Store) String(name string) string {
	raw, _ := s.lookup(name)
	return raw
}

// Float returns the float value of name, or the schema default when the
// stored value does not parse.
func (s *Store) Float(name string) float64 {
	raw, f := s.lookup(name)
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return v
	}
	if f != nil {
		if v, err := strconv.ParseFloat(f.Default, 64); err == nil {
			return v
		}
	}
	return 0
}

// Bool returns the boolean value of name, or the schema default when the
// stored value does not parse.
func (s *Store) Bool(name string) bool {
	raw, f := s.lookup(name)
	if v, ok := parseBool(raw); ok {
		return v
	}
	if f != nil {
		if v, ok := parseBool(f.Default); ok {
			return v
		}
	}
	return false
}

// Int returns the integer value of name, or the schema default when the
// stored value does not parse or violates the field minimum.
func (s *Store) Int(name string) int {
	raw, f := s.lookup(name)
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		if f == nil || !f.HasMin || v >= f.Min {
			return v
		}
	}
	if f != nil {
		if v, err := strconv.Atoi(f.Default); err == nil {
			return v
		}
	}
	return 0
}

// SetString stores a string value under name.
func (s *Store) SetString(name, value string) {
	s.values[name] = value
}

// SetFloat stores a float value under name.
func (s *Store) SetFloat(name string, value float64) {
	s.values[name] = formatFloat(value)
}

// SetBool stores a boolean value under name.
func (s *Store) SetBool(name string, value bool) {
	s.values[name] = formatBool(value)
}

// SetInt stores an integer value under name.
func (s *Store) SetInt(name string, value int) {
	s.values[name] = strconv.Itoa(value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// parseBool accepts the spellings conventional in backup.conf files.
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "on", "1":
		return true, true
	case "no", "false", "off", "0":
		return false, true
	}
	return false, false
}
