package order

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownField is returned by a Store asked to filter on a field it is not configured for.
var ErrUnknownField = errors.New("unknown scope field")

// Field is one grouping attribute of a Scope, eg. {Name: "course_id", Value: "42"}.
type Field struct {
	Name  string
	Value string
}

// Scope is the set of grouping fields whose values a record shares with the records
// it is ordered among. Scopes are comparable values: two scopes are equal iff they
// hold the same name/value pairs, whatever the order they were given in.
type Scope struct {
	key string
}

// GlobalScope has no grouping field: the whole collection is ordered as one group.
var GlobalScope = Scope{}

// NewScope builds a Scope from fields. A field name given twice keeps its last value.
func NewScope(fields ...Field) Scope {
	if len(fields) == 0 {
		return GlobalScope
	}

	values := make(map[string]string, len(fields))
	for _, fld := range fields {
		values[fld.Name] = fld.Value
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var key strings.Builder
	for i, name := range names {
		if i > 0 {
			key.WriteByte(',')
		}
		key.WriteString(strconv.Quote(name))
		key.WriteByte('=')
		key.WriteString(strconv.Quote(values[name]))
	}
	return Scope{key: key.String()}
}

// Fields returns the grouping fields of s sorted by name.
func (s Scope) Fields() []Field {
	if s.key == "" {
		return nil
	}
	var fields []Field
	rest := s.key
	for rest != "" {
		var fld Field
		fld.Name, rest = unquotePrefix(rest)
		rest = strings.TrimPrefix(rest, "=")
		fld.Value, rest = unquotePrefix(rest)
		rest = strings.TrimPrefix(rest, ",")
		fields = append(fields, fld)
	}
	return fields
}

// Value returns the value of the grouping field called name.
func (s Scope) Value(name string) (string, bool) {
	for _, fld := range s.Fields() {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

func (s Scope) IsGlobal() bool {
	return s.key == ""
}

func (s Scope) Equal(other Scope) bool {
	return s == other
}

// CheckFields ensures that s only groups by allowed field names.
func (s Scope) CheckFields(allowed ...string) error {
	for _, fld := range s.Fields() {
		var ok bool
		for _, name := range allowed {
			if fld.Name == name {
				ok = true
				break
			}
		}
		if !ok {
			return errors.Wrapf(ErrUnknownField, "%q", fld.Name)
		}
	}
	return nil
}

func (s Scope) String() string {
	if s.key == "" {
		return "<global>"
	}
	return s.key
}

// unquotePrefix unquotes the quoted string at the start of s and returns it with the remainder of s.
func unquotePrefix(s string) (string, string) {
	quoted, err := strconv.QuotedPrefix(s)
	if err != nil {
		return "", ""
	}
	val, _ := strconv.Unquote(quoted)
	return val, s[len(quoted):]
}
