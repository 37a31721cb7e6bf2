package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
)

// DecodeOptions tunes envelope decoding
type DecodeOptions struct {
	// AllowUnknownKinds decodes resources with unregistered type tags as
	// kind.Unknown instead of failing the whole response
	AllowUnknownKinds bool
}

// Pool is the list of side-loaded resources of a response
type Pool []Resource

// Resolve finds the resource matching ref by id and kind. Unknown kinds
// never match: resources of different unregistered types share that kind.
func (p Pool) Resolve(ref ResourceRef) (*Resource, bool) {
	if !ref.Kind.Known() {
		return nil, false
	}
	for i := range p {
		if p[i].ID == ref.ID && p[i].Kind == ref.Kind {
			return &p[i], true
		}
	}
	return nil, false
}

// OfKind returns the pooled resources of kind k
func (p Pool) OfKind(k kind.Kind) []*Resource {
	var out []*Resource
	for i := range p {
		if p[i].Kind == k {
			out = append(out, &p[i])
		}
	}
	return out
}

// PostInfo is the extra payload sent alongside a page: the posts shown
// before and after it and the author cards
type PostInfo struct {
	AfterPosts  []Item      `json:"after_posts"`
	AuthorCards *Collection `json:"author_cards"`
	BeforePosts []Item      `json:"before_posts"`
}

const (
	keyData        = "data"
	keyIncluded    = "included"
	keyAfterPosts  = "after_posts"
	keyAuthorCards = "author_cards"
	keyBeforePosts = "before_posts"
)

// Item is a response whose primary data is a single resource
type Item struct {
	Data     Resource
	Included Pool
	PostInfo *PostInfo
	// Extra holds unrecognized top-level members (links, meta, ...)
	Extra map[string]json.RawMessage
}

// Collection is a response whose primary data is a list of resources
type Collection struct {
	Data     []Resource
	Included Pool
	PostInfo *PostInfo
	Extra    map[string]json.RawMessage
}

// DecodeItem decodes a single-resource response body
func DecodeItem(body []byte, opts DecodeOptions) (*Item, error) {
	var item Item
	if err := item.decode(body, opts); err != nil {
		return nil, fault.Decode("decode item", err)
	}
	return &item, nil
}

// DecodeCollection decodes a resource-list response body
func DecodeCollection(body []byte, opts DecodeOptions) (*Collection, error) {
	var coll Collection
	if err := coll.decode(body, opts); err != nil {
		return nil, fault.Decode("decode collection", err)
	}
	return &coll, nil
}

// Resolve looks ref up in the included pool
func (i *Item) Resolve(ref ResourceRef) (*Resource, bool) {
	return i.Included.Resolve(ref)
}

// Resolve looks ref up in the included pool
func (c *Collection) Resolve(ref ResourceRef) (*Resource, bool) {
	return c.Included.Resolve(ref)
}

func (i *Item) UnmarshalJSON(raw []byte) error {
	return i.decode(raw, DecodeOptions{})
}

func (c *Collection) UnmarshalJSON(raw []byte) error {
	return c.decode(raw, DecodeOptions{})
}

func (i *Item) decode(raw []byte, opts DecodeOptions) error {
	members, err := splitEnvelope(raw)
	if err != nil {
		return err
	}
	data, ok := members[keyData]
	if !ok || isNullJSON(data) {
		return errors.New("envelope: missing data")
	}
	var out Item
	if err := out.Data.decode(data, opts); err != nil {
		return err
	}
	if out.Included, out.PostInfo, out.Extra, err = decodeSidecars(members, opts); err != nil {
		return err
	}
	*i = out
	return nil
}

func (c *Collection) decode(raw []byte, opts DecodeOptions) error {
	members, err := splitEnvelope(raw)
	if err != nil {
		return err
	}
	data, ok := members[keyData]
	if !ok || isNullJSON(data) {
		return errors.New("envelope: missing data")
	}
	var out Collection
	if out.Data, err = decodeResources(data, opts); err != nil {
		return err
	}
	if out.Included, out.PostInfo, out.Extra, err = decodeSidecars(members, opts); err != nil {
		return err
	}
	*c = out
	return nil
}

func splitEnvelope(raw []byte) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if members == nil {
		return nil, errors.New("envelope: not an object")
	}
	return members, nil
}

func decodeResources(raw json.RawMessage, opts DecodeOptions) ([]Resource, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected a list of resources: %w", err)
	}
	resources := make([]Resource, len(items))
	for i, item := range items {
		if err := resources[i].decode(item, opts); err != nil {
			return nil, fmt.Errorf("resource %d: %w", i, err)
		}
	}
	return resources, nil
}

func decodeSidecars(members map[string]json.RawMessage, opts DecodeOptions) (Pool, *PostInfo, map[string]json.RawMessage, error) {
	var pool Pool
	if raw, ok := members[keyIncluded]; ok && !isNullJSON(raw) {
		resources, err := decodeResources(raw, opts)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("included: %w", err)
		}
		pool = resources
	}

	var info *PostInfo
	for _, key := range []string{keyAfterPosts, keyAuthorCards, keyBeforePosts} {
		if _, ok := members[key]; ok {
			info = new(PostInfo)
			break
		}
	}
	if info != nil {
		if err := info.decode(members, opts); err != nil {
			return nil, nil, nil, err
		}
	}

	var extra map[string]json.RawMessage
	for key, raw := range members {
		switch key {
		case keyData, keyIncluded, keyAfterPosts, keyAuthorCards, keyBeforePosts:
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = raw
	}
	return pool, info, extra, nil
}

func (p *PostInfo) decode(members map[string]json.RawMessage, opts DecodeOptions) error {
	for _, key := range []string{keyAfterPosts, keyBeforePosts} {
		raw, ok := members[key]
		if !ok || isNullJSON(raw) {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		decoded := make([]Item, len(items))
		for i, item := range items {
			if err := decoded[i].decode(item, opts); err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
		}
		if key == keyAfterPosts {
			p.AfterPosts = decoded
		} else {
			p.BeforePosts = decoded
		}
	}
	if raw, ok := members[keyAuthorCards]; ok && !isNullJSON(raw) {
		cards := new(Collection)
		if err := cards.decode(raw, opts); err != nil {
			return fmt.Errorf("%s: %w", keyAuthorCards, err)
		}
		p.AuthorCards = cards
	}
	return nil
}

// envelopeMembers assembles the top-level members shared by both envelopes
func envelopeMembers(data interface{}, included Pool, info *PostInfo, extra map[string]json.RawMessage) map[string]interface{} {
	out := make(map[string]interface{}, len(extra)+5)
	for key, raw := range extra {
		out[key] = raw
	}
	out[keyData] = data
	if included != nil {
		out[keyIncluded] = included
	}
	if info != nil {
		if info.AfterPosts != nil {
			out[keyAfterPosts] = info.AfterPosts
		}
		if info.AuthorCards != nil {
			out[keyAuthorCards] = info.AuthorCards
		}
		if info.BeforePosts != nil {
			out[keyBeforePosts] = info.BeforePosts
		}
	}
	return out
}

func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeMembers(i.Data, i.Included, i.PostInfo, i.Extra))
}

func (c Collection) MarshalJSON() ([]byte, error) {
	data := c.Data
	if data == nil {
		data = []Resource{}
	}
	return json.Marshal(envelopeMembers(data, c.Included, c.PostInfo, c.Extra))
}
