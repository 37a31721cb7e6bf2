package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/DataDog/jsonapi"
	"go.uber.org/zap"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

// send performs one exchange and classifies the outcome. A nil error means
// a 2xx response whose body is not an error document.
func (c *Client) send(ctx context.Context, op string, req *transport.Request) ([]byte, error) {
	req.RequestID = c.requestID()
	start := time.Now()

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		c.logger.Debug("exchange failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("request_id", req.RequestID),
			zap.Error(err),
		)
		return nil, fault.Transport(op, err)
	}

	c.logger.Debug("exchange",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.Status),
		zap.String("request_id", req.RequestID),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.Status == http.StatusInternalServerError:
		return nil, fault.Service(op, resp.Status, "Internal Server Error")
	case resp.Status == http.StatusNotFound:
		return nil, fault.Service(op, resp.Status, "Page Not Found")
	case resp.Status < 200 || resp.Status > 299:
		if ferr := serviceError(op, resp.Status, resp.Body); ferr != nil {
			return nil, ferr
		}
		return nil, fault.Service(op, resp.Status, http.StatusText(resp.Status))
	}

	if ferr := serviceError(op, resp.Status, resp.Body); ferr != nil {
		return nil, ferr
	}
	return resp.Body, nil
}

// do runs the request protocol: attach the token, send, and on a 401 while
// holding a token log in again once and retry once
func (c *Client) do(ctx context.Context, op string, req *transport.Request) ([]byte, error) {
	token := c.session.Token()
	req.Token = token

	body, err := c.send(ctx, op, req)
	if err == nil || token == "" || fault.StatusOf(err) != http.StatusUnauthorized || !fault.Is(err, fault.CategoryService) {
		return body, err
	}

	c.logger.Warn("session token rejected, logging in again",
		zap.String("op", op),
		zap.String("identifier", c.session.Credentials().Identifier),
	)
	fresh, lerr := c.relogin(ctx, token)
	if lerr != nil {
		return nil, lerr
	}

	retry := *req
	retry.Token = fresh
	return c.send(ctx, op, &retry)
}

// wireError is a JSON:API error object as the service sends it. Status may
// be a string or a number.
type wireError struct {
	Status json.RawMessage `json:"status"`
	Code   string          `json:"code"`
	Title  string          `json:"title"`
	Detail string          `json:"detail"`
	Source *struct {
		Pointer string `json:"pointer"`
	} `json:"source"`
}

func (w wireError) toJSONAPI() *jsonapi.Error {
	e := &jsonapi.Error{
		Code:   w.Code,
		Title:  w.Title,
		Detail: w.Detail,
	}
	if status, ok := parseStatus(w.Status); ok {
		e.Status = &status
	}
	if w.Source != nil {
		e.Source = &jsonapi.ErrorSource{Pointer: w.Source.Pointer}
	}
	return e
}

func parseStatus(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// serviceError returns a service fault when body is an error document:
// {"error": "..."}, {"errors": [...]} without primary data, or a bare list
// of error objects
func serviceError(op string, status int, body []byte) *fault.Error {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if errs, ok := errorList(trimmed); ok {
			return serviceDetails(op, status, errs)
		}
		return nil
	}

	var doc struct {
		Data   json.RawMessage `json:"data"`
		Error  *string         `json:"error"`
		Errors []wireError     `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	if len(doc.Data) > 0 {
		return nil
	}
	if doc.Error != nil {
		return fault.Service(op, status, *doc.Error)
	}
	if len(doc.Errors) > 0 {
		return serviceDetails(op, status, doc.Errors)
	}
	return nil
}

func serviceDetails(op string, status int, errs []wireError) *fault.Error {
	details := make([]*jsonapi.Error, len(errs))
	for i, e := range errs {
		details[i] = e.toJSONAPI()
	}
	return fault.ServiceDetails(op, status, details)
}

// errorMembers are the members a JSON:API error object may carry
var errorMembers = map[string]bool{
	"id": true, "links": true, "status": true, "code": true,
	"title": true, "detail": true, "source": true, "meta": true,
}

// errorList decodes a top level array whose elements are all error objects.
// Lists of anything else, such as store items or offers, are rejected.
func errorList(body []byte) ([]wireError, bool) {
	var objects []map[string]json.RawMessage
	if err := json.Unmarshal(body, &objects); err != nil || len(objects) == 0 {
		return nil, false
	}
	for _, obj := range objects {
		described := false
		for member := range obj {
			if !errorMembers[member] {
				return nil, false
			}
			switch member {
			case "status", "code", "title", "detail":
				described = true
			}
		}
		if !described {
			return nil, false
		}
	}

	var errs []wireError
	if err := json.Unmarshal(body, &errs); err != nil {
		return nil, false
	}
	return errs, true
}

// decodeJSON decodes a plain JSON payload into v
func decodeJSON(op string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fault.Decode(op, err)
	}
	return nil
}
