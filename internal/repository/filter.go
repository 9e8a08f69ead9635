// internal/repository/filter.go
package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FieldKind determines how a filter value is decoded for a column.
type FieldKind int

const (
	KindString FieldKind = iota
	KindUUID
	KindBool
)

// Field maps a public filter field name to its column.
type Field struct {
	Column string
	Kind   FieldKind
}

// Fields is the whitelist of filterable fields for one entity.
type Fields map[string]Field

var (
	TodoFields = Fields{
		"id":             {Column: "id", Kind: KindUUID},
		"content":        {Column: "content", Kind: KindString},
		"isDone":         {Column: "is_done", Kind: KindBool},
		"organizationID": {Column: "organization_id", Kind: KindUUID},
	}

	OrganizationFields = Fields{
		"id":   {Column: "id", Kind: KindUUID},
		"name": {Column: "name", Kind: KindString},
	}

	MemberFields = Fields{
		"id":             {Column: "id", Kind: KindUUID},
		"organizationID": {Column: "organization_id", Kind: KindUUID},
		"userID":         {Column: "user_id", Kind: KindString},
		"email":          {Column: "email", Kind: KindString},
		"status":         {Column: "status", Kind: KindString},
	}
)

// Filter is a boolean composition of equality predicates. A node is either
// a leaf (Field set) or a combinator (And/Or set). A nil *Filter matches
// everything.
type Filter struct {
	And []*Filter
	Or  []*Filter

	Field string
	Eq    interface{}
	// In is only produced internally for read scoping; it cannot be
	// expressed in the JSON form.
	In    []interface{}
	hasIn bool
	// none marks an empty disjunction, which matches no row.
	none bool
}

// Eq builds an equality leaf.
func Eq(field string, value interface{}) *Filter {
	return &Filter{Field: field, Eq: value}
}

// In builds a membership leaf. An empty list matches nothing.
func In(field string, values ...interface{}) *Filter {
	return &Filter{Field: field, In: values, hasIn: true}
}

// And combines filters, skipping nil operands.
func And(filters ...*Filter) *Filter {
	var nodes []*Filter
	for _, f := range filters {
		if f != nil {
			nodes = append(nodes, f)
		}
	}
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return &Filter{And: nodes}
}

// Or combines filters, skipping nil operands.
func Or(filters ...*Filter) *Filter {
	var nodes []*Filter
	for _, f := range filters {
		if f != nil {
			nodes = append(nodes, f)
		}
	}
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return &Filter{Or: nodes}
}

// EqValue returns the value of an equality leaf on field when the filter
// requires it unconditionally, either as the root or under a top-level And.
func (f *Filter) EqValue(field string) (string, bool) {
	if f == nil {
		return "", false
	}
	if f.Field == field && !f.hasIn {
		return fmt.Sprint(f.Eq), true
	}
	for _, child := range f.And {
		if v, ok := child.EqValue(field); ok {
			return v, true
		}
	}
	return "", false
}

// ParseFilter decodes the JSON filter form, for example
//
//	{"and":[{"organizationID":{"eq":"..."}},{"email":{"eq":"a@b.c"}}]}
//
// and validates every field against fields. Empty input yields a nil filter.
func ParseFilter(raw []byte, fields Fields) (*Filter, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var node map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&node); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}

	return parseNode(node, fields)
}

func parseNode(node map[string]json.RawMessage, fields Fields) (*Filter, error) {
	if len(node) == 0 {
		return nil, nil
	}

	var parts []*Filter
	for key, value := range node {
		switch key {
		case "and", "or":
			var children []map[string]json.RawMessage
			if err := json.Unmarshal(value, &children); err != nil {
				return nil, fmt.Errorf("%w: %q expects an array of filters", domain.ErrInvalidFilter, key)
			}
			var nodes []*Filter
			for _, child := range children {
				f, err := parseNode(child, fields)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, f)
			}
			switch {
			case key == "and":
				parts = append(parts, And(nodes...))
			case len(children) == 0:
				parts = append(parts, &Filter{none: true})
			default:
				parts = append(parts, Or(nodes...))
			}
		default:
			leaf, err := parseLeaf(key, value, fields)
			if err != nil {
				return nil, err
			}
			parts = append(parts, leaf)
		}
	}

	// Several keys in one object are implicitly conjoined.
	return And(parts...), nil
}

func parseLeaf(name string, raw json.RawMessage, fields Fields) (*Filter, error) {
	field, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidFilter, name)
	}

	var ops map[string]json.RawMessage
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("%w: field %q expects an operator object", domain.ErrInvalidFilter, name)
	}
	if len(ops) != 1 {
		return nil, fmt.Errorf("%w: field %q expects exactly one operator", domain.ErrInvalidFilter, name)
	}
	eq, ok := ops["eq"]
	if !ok {
		return nil, fmt.Errorf("%w: field %q supports only eq", domain.ErrInvalidFilter, name)
	}

	value, err := decodeValue(field.Kind, eq)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", domain.ErrInvalidFilter, name, err)
	}

	return Eq(name, value), nil
}

func decodeValue(kind FieldKind, raw json.RawMessage) (interface{}, error) {
	switch kind {
	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("expected boolean")
		}
		return b, nil
	case KindUUID:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("expected string")
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("expected uuid")
		}
		return id.String(), nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("expected string")
		}
		return s, nil
	}
}

// MarshalJSON renders the filter in the same form ParseFilter accepts.
// In leaves are rendered as an or of equalities.
func (f *Filter) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	switch {
	case f.none:
		return []byte(`{"or":[]}`), nil
	case len(f.And) > 0:
		return json.Marshal(map[string][]*Filter{"and": f.And})
	case len(f.Or) > 0:
		return json.Marshal(map[string][]*Filter{"or": f.Or})
	case f.hasIn:
		var nodes []*Filter
		for _, v := range f.In {
			nodes = append(nodes, Eq(f.Field, v))
		}
		return json.Marshal(map[string][]*Filter{"or": nodes})
	}
	return json.Marshal(map[string]map[string]interface{}{f.Field: {"eq": f.Eq}})
}

// apply adds the filter as a WHERE clause. Field names are resolved through
// the whitelist, so only declared columns ever reach the SQL text.
func (f *Filter) apply(db *gorm.DB, fields Fields) (*gorm.DB, error) {
	if f == nil {
		return db, nil
	}
	sql, args, err := f.build(fields)
	if err != nil {
		return nil, err
	}
	return db.Where(sql, args...), nil
}

func (f *Filter) build(fields Fields) (string, []interface{}, error) {
	if f.none {
		return "1 = 0", nil, nil
	}
	if len(f.And) > 0 || len(f.Or) > 0 {
		children, joiner := f.And, " AND "
		if len(f.Or) > 0 {
			children, joiner = f.Or, " OR "
		}
		var (
			clauses []string
			args    []interface{}
		)
		for _, child := range children {
			sql, childArgs, err := child.build(fields)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "("+sql+")")
			args = append(args, childArgs...)
		}
		return strings.Join(clauses, joiner), args, nil
	}

	field, ok := fields[f.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidFilter, f.Field)
	}

	if f.hasIn {
		if len(f.In) == 0 {
			return "1 = 0", nil, nil
		}
		return field.Column + " IN ?", []interface{}{f.In}, nil
	}

	return field.Column + " = ?", []interface{}{f.Eq}, nil
}
