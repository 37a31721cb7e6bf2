package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/conduit-lang/nanowrimo/pkg/nano/codec"
	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
)

// ResourceRef points at a resource by identity. It never owns the target.
type ResourceRef struct {
	ID   uint64
	Kind kind.Kind
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind.Plural(), r.ID)
}

type wireRef struct {
	ID   *codec.ID `json:"id"`
	Type *string   `json:"type"`
}

func (r ResourceRef) MarshalJSON() ([]byte, error) {
	if !r.Kind.Known() {
		return nil, fmt.Errorf("cannot encode reference to %s", r.Kind)
	}
	id := codec.ID(r.ID)
	typ := r.Kind.Plural()
	return json.Marshal(wireRef{ID: &id, Type: &typ})
}

func (r *ResourceRef) UnmarshalJSON(raw []byte) error {
	var w wireRef
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	if w.ID == nil {
		return errors.New("resource reference: missing id")
	}
	if w.Type == nil {
		return errors.New("resource reference: missing type")
	}
	k, err := kind.Resolve(*w.Type)
	if err != nil {
		return err
	}
	r.ID = uint64(*w.ID)
	r.Kind = k
	return nil
}

// LinkSet is the links object of a resource. Self is required; any other
// named links are kept in Others.
type LinkSet struct {
	Self   string
	Others map[string]string
}

func (l LinkSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(l.Others)+1)
	for name, href := range l.Others {
		m[name] = href
	}
	m["self"] = l.Self
	return json.Marshal(m)
}

func (l *LinkSet) UnmarshalJSON(raw []byte) error {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("links: %w", err)
	}
	self, ok := m["self"]
	if !ok {
		return errors.New("links: missing self")
	}
	delete(m, "self")
	l.Self = self
	l.Others = nil
	if len(m) > 0 {
		l.Others = m
	}
	return nil
}

// Cardinality tells whether a relation leads to one resource or many
type Cardinality int

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// RelationLink holds the navigable URLs of a relationship
type RelationLink struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related"`
}

func (l *RelationLink) UnmarshalJSON(raw []byte) error {
	var w struct {
		Self    string  `json:"self"`
		Related *string `json:"related"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("relation links: %w", err)
	}
	if w.Related == nil {
		return errors.New("relation links: missing related")
	}
	l.Self = w.Self
	l.Related = *w.Related
	return nil
}

// Cardinality follows the API convention that the related URL of a to-many
// relation ends in a plural path segment ("users/42/projects").
func (l RelationLink) Cardinality() Cardinality {
	p := l.Related
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if strings.HasSuffix(p, "s") {
		return Many
	}
	return One
}

// relationShape remembers how a relationship entry looked on the wire so it
// can be encoded back the same way
type relationShape struct {
	name     string
	toOne    bool
	nullData bool
}

// RelationshipSet is the relationships object of a resource.
//
// Included holds the refs the server side-loaded for a relation. Relations
// holds its navigable links. A kind may appear in either or both.
type RelationshipSet struct {
	Included  map[kind.Kind][]ResourceRef
	Relations map[kind.Kind]RelationLink
	// Unresolved keeps entries whose name or ref types are not known kinds.
	// Only filled when decoding with AllowUnknownKinds.
	Unresolved map[string]json.RawMessage

	shapes map[kind.Kind]relationShape
}

type wireRelationship struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Links *RelationLink   `json:"links,omitempty"`
}

// Link returns the relation link for k
func (s *RelationshipSet) Link(k kind.Kind) (RelationLink, bool) {
	if s == nil {
		return RelationLink{}, false
	}
	l, ok := s.Relations[k]
	return l, ok
}

// Refs returns the side-loaded refs for k
func (s *RelationshipSet) Refs(k kind.Kind) []ResourceRef {
	if s == nil {
		return nil
	}
	return s.Included[k]
}

func (s *RelationshipSet) UnmarshalJSON(raw []byte) error {
	return s.decode(raw, DecodeOptions{})
}

func (s *RelationshipSet) decode(raw []byte, opts DecodeOptions) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("relationships: %w", err)
	}
	*s = RelationshipSet{}

	for name, entry := range entries {
		k, err := kind.Resolve(name)
		if err != nil {
			if opts.AllowUnknownKinds {
				s.keepUnresolved(name, entry)
				continue
			}
			return fmt.Errorf("relationship %q: %w", name, err)
		}

		var w wireRelationship
		if err := json.Unmarshal(entry, &w); err != nil {
			return fmt.Errorf("relationship %q: %w", name, err)
		}

		refs, shape, err := decodeRelationData(w.Data)
		if err != nil {
			var unknown *kind.UnknownKindError
			if opts.AllowUnknownKinds && errors.As(err, &unknown) {
				s.keepUnresolved(name, entry)
				continue
			}
			return fmt.Errorf("relationship %q: %w", name, err)
		}
		shape.name = name

		if refs != nil {
			if s.Included == nil {
				s.Included = make(map[kind.Kind][]ResourceRef)
			}
			s.Included[k] = refs
		}
		if w.Links != nil {
			if s.Relations == nil {
				s.Relations = make(map[kind.Kind]RelationLink)
			}
			s.Relations[k] = *w.Links
		}
		if s.shapes == nil {
			s.shapes = make(map[kind.Kind]relationShape)
		}
		s.shapes[k] = shape
	}
	return nil
}

func (s *RelationshipSet) keepUnresolved(name string, entry json.RawMessage) {
	if s.Unresolved == nil {
		s.Unresolved = make(map[string]json.RawMessage)
	}
	s.Unresolved[name] = entry
}

// decodeRelationData accepts an array of refs, a single ref or null.
// A nil slice means the relation was not side-loaded.
func decodeRelationData(raw json.RawMessage) ([]ResourceRef, relationShape, error) {
	var shape relationShape
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return nil, shape, nil
	case bytes.Equal(trimmed, []byte("null")):
		shape.nullData = true
		return nil, shape, nil
	case trimmed[0] == '{':
		var ref ResourceRef
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return nil, shape, err
		}
		shape.toOne = true
		return []ResourceRef{ref}, shape, nil
	default:
		refs := []ResourceRef{}
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return nil, shape, err
		}
		return refs, shape, nil
	}
}

func (s RelationshipSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Included)+len(s.Relations)+len(s.Unresolved))

	seen := make(map[kind.Kind]bool)
	var kinds []kind.Kind
	for k := range s.Included {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	for k := range s.Relations {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	for k := range s.shapes {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, k := range kinds {
		if !k.Known() {
			return nil, fmt.Errorf("cannot encode relationship for %s", k)
		}
		shape := s.shapes[k]
		name := shape.name
		if name == "" {
			name = k.Plural()
		}

		var w wireRelationship
		refs, included := s.Included[k]
		switch {
		case included && shape.toOne && len(refs) == 1:
			data, err := json.Marshal(refs[0])
			if err != nil {
				return nil, err
			}
			w.Data = data
		case included:
			if refs == nil {
				refs = []ResourceRef{}
			}
			data, err := json.Marshal(refs)
			if err != nil {
				return nil, err
			}
			w.Data = data
		case shape.nullData:
			w.Data = json.RawMessage("null")
		}
		if l, ok := s.Relations[k]; ok {
			w.Links = &l
		}

		entry, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		out[name] = entry
	}
	for name, raw := range s.Unresolved {
		out[name] = raw
	}
	return json.Marshal(out)
}

// Resource is one typed entity of the service. Kind and the dynamic type of
// Attributes always agree.
type Resource struct {
	ID   uint64
	Kind kind.Kind
	// Type is the tag as it appeared on the wire
	Type          string
	Attributes    Attributes
	Relationships *RelationshipSet
	Links         LinkSet
}

// Ref returns the identity of r
func (r *Resource) Ref() ResourceRef {
	return ResourceRef{ID: r.ID, Kind: r.Kind}
}

// Related resolves the side-loaded refs of relation k against pool.
// Refs the pool does not hold are skipped.
func (r *Resource) Related(pool Pool, k kind.Kind) []*Resource {
	refs := r.Relationships.Refs(k)
	related := make([]*Resource, 0, len(refs))
	for _, ref := range refs {
		if res, ok := pool.Resolve(ref); ok {
			related = append(related, res)
		}
	}
	return related
}

type wireResource struct {
	ID            *codec.ID       `json:"id"`
	Type          *string         `json:"type"`
	Attributes    json.RawMessage `json:"attributes"`
	Relationships json.RawMessage `json:"relationships"`
	Links         *LinkSet        `json:"links"`
}

func (r *Resource) UnmarshalJSON(raw []byte) error {
	return r.decode(raw, DecodeOptions{})
}

func (r *Resource) decode(raw []byte, opts DecodeOptions) error {
	var w wireResource
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("resource: %w", err)
	}
	if w.Type == nil {
		return errors.New("resource: missing type")
	}
	if w.ID == nil {
		return fmt.Errorf("%s resource: missing id", *w.Type)
	}
	where := fmt.Sprintf("%s/%d", *w.Type, uint64(*w.ID))
	if len(w.Attributes) == 0 || isNullJSON(w.Attributes) {
		return fmt.Errorf("%s: missing attributes", where)
	}
	if w.Links == nil {
		return fmt.Errorf("%s: missing links", where)
	}

	res := Resource{ID: uint64(*w.ID), Type: *w.Type, Links: *w.Links}

	k, err := kind.Resolve(*w.Type)
	switch {
	case err == nil:
		attrs, ok := newAttributes(k)
		if !ok {
			return fmt.Errorf("%s: no attribute schema for %s", where, k)
		}
		if err := checkRequired(w.Attributes, attrs); err != nil {
			return fmt.Errorf("%s attributes: %w", where, err)
		}
		if err := json.Unmarshal(w.Attributes, attrs); err != nil {
			return fmt.Errorf("%s attributes: %w", where, err)
		}
		res.Kind = k
		res.Attributes = attrs
	case opts.AllowUnknownKinds:
		res.Kind = kind.Unknown
		res.Attributes = &UnknownAttributes{Raw: append(json.RawMessage(nil), w.Attributes...)}
	default:
		return fmt.Errorf("resource %s: %w", where, err)
	}

	if len(w.Relationships) > 0 && !isNullJSON(w.Relationships) {
		rels := new(RelationshipSet)
		if err := rels.decode(w.Relationships, opts); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		res.Relationships = rels
	}

	*r = res
	return nil
}

func (r Resource) MarshalJSON() ([]byte, error) {
	if r.Attributes == nil {
		return nil, fmt.Errorf("resource %d: no attributes", r.ID)
	}
	if r.Attributes.Kind() != r.Kind {
		return nil, &KindMismatchError{Expected: r.Kind, Actual: r.Attributes.Kind()}
	}

	typ := r.Type
	if r.Kind.Known() {
		if k, err := kind.Resolve(typ); err != nil || k != r.Kind {
			typ = r.Kind.Plural()
		}
	} else if typ == "" {
		return nil, fmt.Errorf("resource %d: unknown kind without a type tag", r.ID)
	}

	return json.Marshal(struct {
		ID            codec.ID         `json:"id"`
		Type          string           `json:"type"`
		Attributes    Attributes       `json:"attributes"`
		Relationships *RelationshipSet `json:"relationships,omitempty"`
		Links         LinkSet          `json:"links"`
	}{
		ID:            codec.ID(r.ID),
		Type:          typ,
		Attributes:    r.Attributes,
		Relationships: r.Relationships,
		Links:         r.Links,
	})
}

// KindMismatchError reports a resource of a different kind than the caller
// asked for
type KindMismatchError struct {
	Expected kind.Kind
	Actual   kind.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("expected %s attributes, got %s", e.Expected, e.Actual)
}

// AttributesAs returns the attributes of r as T, e.g.
//
//	user, err := model.AttributesAs[*model.UserAttributes](res)
//
// A resource of another kind yields a contract error wrapping
// *KindMismatchError.
func AttributesAs[T Attributes](r *Resource) (T, error) {
	var zero T
	expected := kind.Unknown
	if any(zero) != nil {
		expected = zero.Kind()
	}
	if r == nil {
		return zero, fault.Contract("attributes", "nil resource")
	}
	attrs, ok := r.Attributes.(T)
	if !ok {
		return zero, &fault.Error{
			Category: fault.CategoryContract,
			Op:       "attributes",
			Err:      &KindMismatchError{Expected: expected, Actual: r.Kind},
		}
	}
	return attrs, nil
}

func isNullJSON(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
