package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"servicehub/models"
)

// Resource names a remote collection: its route segment, the key its list is
// nested under in responses, and the key a single item is nested under.
type Resource struct {
	Path       string
	ListKey    string
	ItemKey    string
	Toggleable bool
}

var (
	Bookings      = Resource{Path: "bookings", ListKey: "bookings", ItemKey: "booking"}
	Categories    = Resource{Path: "categories", ListKey: "categories", ItemKey: "category", Toggleable: true}
	Services      = Resource{Path: "services", ListKey: "services", ItemKey: "service", Toggleable: true}
	Offers        = Resource{Path: "offers", ListKey: "offers", ItemKey: "offer", Toggleable: true}
	Coupons       = Resource{Path: "coupons", ListKey: "coupons", ItemKey: "coupon", Toggleable: true}
	Designations  = Resource{Path: "jobdesignations", ListKey: "designations", ItemKey: "designation", Toggleable: true}
	Technicians   = Resource{Path: "technicians", ListKey: "technicians", ItemKey: "technician", Toggleable: true}
	Plans         = Resource{Path: "plans", ListKey: "plans", ItemKey: "plan", Toggleable: true}
	Parts         = Resource{Path: "parts", ListKey: "parts", ItemKey: "part", Toggleable: true}
	Users         = Resource{Path: "users", ListKey: "users", ItemKey: "user"}
	Notifications = Resource{Path: "notifications", ListKey: "notifications", ItemKey: "notification"}
	TimeSlots     = Resource{Path: "timeslots", ListKey: "timeSlots", ItemKey: "timeSlot"}
	Addresses     = Resource{Path: "addresses", ListKey: "addresses", ItemKey: "address"}
)

// AdminResources are the collections admins manage through generic CRUD.
var AdminResources = map[string]Resource{
	Services.Path:     Services,
	Offers.Path:       Offers,
	Coupons.Path:      Coupons,
	Designations.Path: Designations,
	Technicians.Path:  Technicians,
	Plans.Path:        Plans,
	Categories.Path:   Categories,
	Parts.Path:        Parts,
}

// ListQuery carries the pagination convention plus optional filters.
type ListQuery struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

func (q ListQuery) values(defaultLimit int) url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for k, val := range q.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

type pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// List fetches one page of r. The response nests the items under data.<ListKey>
// and the counters under data.pagination.
func List[T any](ctx context.Context, c *Client, r Resource, q ListQuery) (models.Page[T], error) {
	var raw json.RawMessage
	path := c.Path(r.Path)
	if err := c.Do(ctx, http.MethodGet, path, q.values(c.pageSize), nil, &raw); err != nil {
		return models.Page[T]{}, err
	}
	page, err := decodePage[T](raw, r.ListKey)
	if err != nil {
		return models.Page[T]{}, &Error{Kind: KindDecode, Op: "GET " + path, Message: "unexpected list shape", Err: err}
	}
	return page, nil
}

func decodePage[T any](raw json.RawMessage, key string) (models.Page[T], error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return models.Page[T]{Data: items, TotalPages: 1, CurrentPage: 1, Total: len(items)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Page[T]{}, err
	}
	list, ok := obj[key]
	if !ok {
		return models.Page[T]{}, fmt.Errorf("missing %q in response", key)
	}
	if err := json.Unmarshal(list, &items); err != nil {
		return models.Page[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	p := pagination{Page: 1, Pages: 1, Total: len(items)}
	if pg, ok := obj["pagination"]; ok {
		if err := json.Unmarshal(pg, &p); err != nil {
			return models.Page[T]{}, err
		}
	}
	return models.Page[T]{Data: items, TotalPages: p.Pages, CurrentPage: p.Page, Total: p.Total}, nil
}

// Get fetches one item of r by id.
func Get[T any](ctx context.Context, c *Client, r Resource, id string) (T, error) {
	var out T
	var raw json.RawMessage
	path := c.Path(r.Path, url.PathEscape(id))
	if err := c.Do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return out, err
	}
	if err := decodeItem(raw, r.ItemKey, &out); err != nil {
		return out, &Error{Kind: KindDecode, Op: "GET " + path, Message: "unexpected item shape", Err: err}
	}
	return out, nil
}

// Create posts body to r and returns the created item.
func Create[T any](ctx context.Context, c *Client, r Resource, body any) (T, error) {
	return write[T](ctx, c, http.MethodPost, c.Path(r.Path), r.ItemKey, body)
}

// Update replaces the item id of r.
func Update[T any](ctx context.Context, c *Client, r Resource, id string, body any) (T, error) {
	return write[T](ctx, c, http.MethodPut, c.Path(r.Path, url.PathEscape(id)), r.ItemKey, body)
}

// ToggleActive flips the active flag of item id of r.
func ToggleActive[T any](ctx context.Context, c *Client, r Resource, id string) (T, error) {
	if !r.Toggleable {
		var zero T
		return zero, &Error{Kind: KindClient, Op: "PATCH " + r.Path, Status: http.StatusBadRequest, Message: r.Path + " cannot be toggled"}
	}
	return write[T](ctx, c, http.MethodPatch, c.Path(r.Path, url.PathEscape(id), "toggle"), r.ItemKey, nil)
}

// Delete removes item id of r.
func Delete(ctx context.Context, c *Client, r Resource, id string) error {
	return c.Do(ctx, http.MethodDelete, c.Path(r.Path, url.PathEscape(id)), nil, nil, nil)
}

func write[T any](ctx context.Context, c *Client, method, path, key string, body any) (T, error) {
	var out T
	var raw json.RawMessage
	if err := c.Do(ctx, method, path, nil, body, &raw); err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := decodeItem(raw, key, &out); err != nil {
		return out, &Error{Kind: KindDecode, Op: method + " " + path, Message: "unexpected item shape", Err: err}
	}
	return out, nil
}
