package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

// Fundometer returns the state of the donation drive
func (c *Client) Fundometer(ctx context.Context) (*model.Fundometer, error) {
	const op = "fundometer"
	body, err := c.do(ctx, op, &transport.Request{Method: http.MethodGet, Path: "fundometer"})
	if err != nil {
		return nil, err
	}
	var f model.Fundometer
	if err := decodeJSON(op, body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Search finds users whose name matches name
func (c *Client) Search(ctx context.Context, name string) (*model.Collection, error) {
	return c.getCollection(ctx, "search", "search", url.Values{"q": {name}}, kind.User)
}

// RandomOffer returns one sponsor offer post
func (c *Client) RandomOffer(ctx context.Context) (*model.Item, error) {
	return c.getItem(ctx, "random offer", "random_offer", nil, kind.Post)
}

// StoreItems lists the merchandise store
func (c *Client) StoreItems(ctx context.Context) ([]model.StoreItem, error) {
	const op = "store items"
	body, err := c.do(ctx, op, &transport.Request{Method: http.MethodGet, Path: "store_items"})
	if err != nil {
		return nil, err
	}
	var items []model.StoreItem
	if err := decodeJSON(op, body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Offers lists every sponsor offer. The service answers with a list of
// single-post documents.
func (c *Client) Offers(ctx context.Context) ([]model.Item, error) {
	const op = "offers"
	body, err := c.do(ctx, op, &transport.Request{Method: http.MethodGet, Path: "offers"})
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := decodeJSON(op, body, &raw); err != nil {
		return nil, err
	}
	offers := make([]model.Item, 0, len(raw))
	for i, doc := range raw {
		item, err := model.DecodeItem(doc, c.decode)
		if err != nil {
			return nil, fault.WithOp(op, err)
		}
		if item.Data.Kind != kind.Post {
			return nil, fault.Decodef(op, "expected %s, got %s at index %d", kind.Post, item.Data.Kind, i)
		}
		offers = append(offers, *item)
	}
	return offers, nil
}

// CurrentUser returns the logged in user, side-loading related kinds
func (c *Client) CurrentUser(ctx context.Context, include ...kind.Kind) (*model.Item, error) {
	const op = "current user"
	q, err := buildQuery(include, nil)
	if err != nil {
		return nil, fault.WithOp(op, err)
	}
	return c.getItem(ctx, op, "users/current", q, kind.User)
}

// Page returns a content page by slug, e.g. "pep-talks", "about-nano",
// "come-write-in" or "terms-and-conditions"
func (c *Client) Page(ctx context.Context, slug string) (*model.Item, error) {
	if slug == "" {
		return nil, fault.Contract("page", "empty page slug")
	}
	return c.getItem(ctx, "page "+slug, "pages/"+url.PathEscape(slug), nil, kind.Page)
}

// Notifications lists the logged in user's notifications
func (c *Client) Notifications(ctx context.Context) (*model.Collection, error) {
	return c.getCollection(ctx, "notifications", "notifications", nil, kind.Notification)
}

// AvailableChallenges lists the challenges the user can join
func (c *Client) AvailableChallenges(ctx context.Context) (*model.Collection, error) {
	return c.getCollection(ctx, "available challenges", "challenges/available", nil, kind.Challenge)
}
