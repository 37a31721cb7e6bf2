package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

// Filter narrows a listing to resources related to the resource with the
// given ID, sent as filter[Key]=ID. Which keys a kind accepts is decided by
// the service and many combinations are rejected there.
type Filter struct {
	Key string
	ID  uint64
}

// buildQuery encodes include and filter parameters
func buildQuery(include []kind.Kind, filters []Filter) (url.Values, error) {
	q := url.Values{}
	for _, k := range include {
		if !k.Known() {
			return nil, fault.Contract("query", "cannot include %s", k)
		}
	}
	if len(include) > 0 {
		q.Set("include", kind.JoinPlural(include, ","))
	}

	for _, f := range filters {
		q.Add("filter["+f.Key+"]", strconv.FormatUint(f.ID, 10))
	}
	return q, nil
}

// GetAll lists every accessible resource of kind k
func (c *Client) GetAll(ctx context.Context, k kind.Kind) (*model.Collection, error) {
	return c.GetAllIncludeFiltered(ctx, k, nil, nil)
}

// GetAllInclude lists resources of kind k, side-loading related kinds
func (c *Client) GetAllInclude(ctx context.Context, k kind.Kind, include ...kind.Kind) (*model.Collection, error) {
	return c.GetAllIncludeFiltered(ctx, k, include, nil)
}

// GetAllFiltered lists resources of kind k related to the filtered IDs
func (c *Client) GetAllFiltered(ctx context.Context, k kind.Kind, filters ...Filter) (*model.Collection, error) {
	return c.GetAllIncludeFiltered(ctx, k, nil, filters)
}

// GetAllIncludeFiltered lists resources of kind k with side-loaded kinds
// and relation filters
func (c *Client) GetAllIncludeFiltered(ctx context.Context, k kind.Kind, include []kind.Kind, filters []Filter) (*model.Collection, error) {
	op := "get all " + k.Plural()
	if !k.Known() {
		return nil, fault.Contract("get all", "cannot list %s resources", k)
	}
	q, err := buildQuery(include, filters)
	if err != nil {
		return nil, fault.WithOp(op, err)
	}
	return c.getCollection(ctx, op, k.Plural(), q, k)
}

// GetID fetches the resource of kind k with the given ID
func (c *Client) GetID(ctx context.Context, k kind.Kind, id uint64) (*model.Item, error) {
	return c.GetIDInclude(ctx, k, id)
}

// GetIDInclude fetches one resource, side-loading related kinds
func (c *Client) GetIDInclude(ctx context.Context, k kind.Kind, id uint64, include ...kind.Kind) (*model.Item, error) {
	if !k.Known() {
		return nil, fault.Contract("get", "cannot fetch %s resources", k)
	}
	path := k.Plural() + "/" + strconv.FormatUint(id, 10)
	op := "get " + path
	q, err := buildQuery(include, nil)
	if err != nil {
		return nil, fault.WithOp(op, err)
	}
	return c.getItem(ctx, op, path, q, k)
}

// GetAllRelated follows a to-many relation link. A to-one link is a
// contract failure and nothing is sent.
func (c *Client) GetAllRelated(ctx context.Context, link model.RelationLink) (*model.Collection, error) {
	op := "get related " + link.Related
	if link.Cardinality() != model.Many {
		return nil, fault.Contract(op, "link leads to a single resource, use GetUniqueRelated")
	}
	return c.getCollection(ctx, op, link.Related, nil, kind.Unknown)
}

// GetUniqueRelated follows a to-one relation link. A to-many link is a
// contract failure and nothing is sent.
func (c *Client) GetUniqueRelated(ctx context.Context, link model.RelationLink) (*model.Item, error) {
	op := "get related " + link.Related
	if link.Cardinality() != model.One {
		return nil, fault.Contract(op, "link leads to many resources, use GetAllRelated")
	}
	return c.getItem(ctx, op, link.Related, nil, kind.Unknown)
}

// getItem fetches a single-resource document. A known want is checked
// against the kind of the primary data.
func (c *Client) getItem(ctx context.Context, op, path string, q url.Values, want kind.Kind) (*model.Item, error) {
	body, err := c.do(ctx, op, &transport.Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	item, err := model.DecodeItem(body, c.decode)
	if err != nil {
		return nil, fault.WithOp(op, err)
	}
	if want.Known() && item.Data.Kind != want {
		return nil, fault.Decodef(op, "expected %s, got %s", want, item.Data.Kind)
	}
	return item, nil
}

func (c *Client) getCollection(ctx context.Context, op, path string, q url.Values, want kind.Kind) (*model.Collection, error) {
	body, err := c.do(ctx, op, &transport.Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	coll, err := model.DecodeCollection(body, c.decode)
	if err != nil {
		return nil, fault.WithOp(op, err)
	}
	if want.Known() {
		for i := range coll.Data {
			if coll.Data[i].Kind != want {
				return nil, fault.Decodef(op, "expected %s, got %s at index %d", want, coll.Data[i].Kind, i)
			}
		}
	}
	return coll, nil
}
