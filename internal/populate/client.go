package populate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every registry call. Calls are never retried.
const DefaultTimeout = 5 * time.Second

// Client talks to the registry REST API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Response struct {
	StatusCode int
	Body       json.RawMessage
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Create posts in to the collection and decodes the created item into out.
func (c *Client) Create(ctx context.Context, collection string, in, out any) error {
	item := collection + "=" + describe(in)
	resp, err := c.do(ctx, http.MethodPost, "/"+collection+"/", nil, in)
	if err != nil {
		return &RequestError{Op: ErrCreation, Item: item, Err: err}
	}
	if resp.StatusCode != http.StatusCreated {
		return resp.fail(ErrCreation, item)
	}
	return resp.decode(out)
}

// Update sends in with method (PATCH or PUT) to the item. It reports false
// and leaves out untouched when the registry answers 304.
func (c *Client) Update(ctx context.Context, method, collection, uid string, in, out any) (bool, error) {
	item := collection + "=" + uid
	resp, err := c.do(ctx, method, "/"+collection+"/"+uid, nil, in)
	if err != nil {
		return false, &RequestError{Op: ErrUpdate, Item: item, Err: err}
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, resp.decode(out)
	case http.StatusNotModified:
		return false, nil
	}
	return false, resp.fail(ErrUpdate, item)
}

// Single looks up the only item matching params. It reports false when
// nothing matches and fails with ErrDatabaseCorrupted on several matches.
func (c *Client) Single(ctx context.Context, collection string, params url.Values, out any) (bool, error) {
	item := collection + "?" + params.Encode()
	resp, err := c.do(ctx, http.MethodGet, "/"+collection+"/", params, nil)
	if err != nil {
		return false, &RequestError{Op: ErrFind, Item: item, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return false, resp.fail(ErrFind, item)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return false, fmt.Errorf("parse %s list: %w", collection, err)
	}
	switch len(items) {
	case 0:
		return false, nil
	case 1:
		if out == nil {
			return true, nil
		}
		return true, json.Unmarshal(items[0], out)
	}
	return false, corrupted(item, len(items))
}

// Remove deletes the item.
func (c *Client) Remove(ctx context.Context, collection, uid string) error {
	item := collection + "=" + uid
	resp, err := c.do(ctx, http.MethodDelete, "/"+collection+"/"+uid, nil, nil)
	if err != nil {
		return &RequestError{Op: ErrDelete, Item: item, Err: err}
	}
	if resp.StatusCode != http.StatusNoContent {
		return resp.fail(ErrDelete, item)
	}
	return nil
}

// Connect links uid to peer through the relationship sub-path, e.g.
// Connect(ctx, "projects", p, "flavors", f). It reports whether the link is
// new.
func (c *Client) Connect(ctx context.Context, collection, uid, relation, peer string) (bool, error) {
	return c.link(ctx, http.MethodPut, ErrConnection, collection, uid, relation, peer)
}

// Disconnect removes the link between uid and peer. It reports whether a
// link existed.
func (c *Client) Disconnect(ctx context.Context, collection, uid, relation, peer string) (bool, error) {
	return c.link(ctx, http.MethodDelete, ErrDisconnection, collection, uid, relation, peer)
}

func (c *Client) link(ctx context.Context, method string, op error, collection, uid, relation, peer string) (bool, error) {
	path := "/" + collection + "/" + uid + "/" + relation + "/" + peer
	resp, err := c.do(ctx, method, path, nil, nil)
	if err != nil {
		return false, &RequestError{Op: op, Item: path, Err: err}
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotModified:
		return false, nil
	}
	return false, resp.fail(op, path)
}

// Outcome of CreateOrUpdate.
const (
	Created   = "created"
	Updated   = "updated"
	Unchanged = "unchanged"
)

// CreateOrUpdate creates in when find matches nothing and otherwise replaces
// the matching item with PUT. out receives the stored item unless nothing
// changed.
func (c *Client) CreateOrUpdate(ctx context.Context, collection string, find url.Values, in, out any) (string, error) {
	var cur struct {
		UID string `json:"uid"`
	}
	found, err := c.Single(ctx, collection, find, &cur)
	if err != nil {
		return "", err
	}
	if !found {
		return Created, c.Create(ctx, collection, in, out)
	}
	changed, err := c.Update(ctx, http.MethodPut, collection, cur.UID, in, out)
	if err != nil {
		return "", err
	}
	if !changed {
		return Unchanged, nil
	}
	return Updated, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(respBody),
	}, nil
}

func (r *Response) decode(out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// fail builds the error for an unexpected status, preferring the message of
// the registry's error body.
func (r *Response) fail(op error, item string) error {
	msg := strings.TrimSpace(string(r.Body))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(r.Body, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &RequestError{Op: op, Item: item, StatusCode: r.StatusCode, Message: msg}
}

// describe names an item by its name or endpoint for error messages.
func describe(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	var keys struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
	}
	_ = json.Unmarshal(data, &keys)
	switch {
	case keys.Name != "":
		return keys.Name
	case keys.Endpoint != "":
		return keys.Endpoint
	}
	return fmt.Sprintf("%T", v)
}
