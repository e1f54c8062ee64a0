package backend

import (
	"context"
	"net/http"
)

// Item is a lead-time tracked item of a project.
type Item struct {
	ID                   int64     `json:"id,omitempty"`
	ProjectID            int64     `json:"projectId"`
	ItemName             string    `json:"itemName"`
	Quantity             Number    `json:"quantity"`
	ExpectedDeliveryDate Timestamp `json:"expectedDeliveryDate"`
	ExpectedArrivalDate  Timestamp `json:"expectedArrivalDate"`
	Status               string    `json:"status"`
}

// ListItems returns the lead-time items of a project.
func (c *Client) ListItems(ctx context.Context, projectID int64) ([]Item, error) {
	var out []Item
	if err := c.getJSON(ctx, idPath("/items/%d", projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItem adds a lead-time item.
func (c *Client) CreateItem(ctx context.Context, item Item) (Item, error) {
	var out Item
	if err := c.sendJSON(ctx, http.MethodPost, "/items/project-items", item, &out); err != nil {
		return Item{}, err
	}
	return out, nil
}

// UpdateItem replaces a lead-time item.
func (c *Client) UpdateItem(ctx context.Context, item Item) error {
	return c.sendJSON(ctx, http.MethodPut, idPath("/items/project-items/%d", item.ID), item, nil)
}

// DeleteItem removes a lead-time item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, http.MethodDelete, idPath("/items/project-items/%d", id), nil, nil)
}
