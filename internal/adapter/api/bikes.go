package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	listingdomain "github.com/veronicavalera/gritgirls/internal/listing/domain"
)

// ListBikes returns bikes newest first. A non-empty state narrows the list
// to that state's two-letter code.
func (c *Client) ListBikes(ctx context.Context, state string) ([]listingdomain.Bike, error) {
	path := "/api/bikes"
	if code := listingdomain.StateCode(state); code != "" {
		path += "?" + url.Values{"state": {code}}.Encode()
	}
	var bikes []listingdomain.Bike
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &bikes, "Failed to load bikes"); err != nil {
		return nil, err
	}
	return bikes, nil
}

func (c *Client) GetBike(ctx context.Context, id int) (*listingdomain.Bike, error) {
	var bike listingdomain.Bike
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/bikes/%d", id), "", nil, &bike, "Bike not found"); err != nil {
		return nil, err
	}
	return &bike, nil
}

// CreateBike posts a draft listing. The listing stays inactive until paid.
func (c *Client) CreateBike(ctx context.Context, token string, payload map[string]any) (*listingdomain.Bike, error) {
	var bike listingdomain.Bike
	if err := c.doJSON(ctx, http.MethodPost, "/api/bikes", token, payload, &bike, "Failed to create listing"); err != nil {
		return nil, err
	}
	return &bike, nil
}

func (c *Client) UpdateBike(ctx context.Context, token string, id int, payload map[string]any) (*listingdomain.Bike, error) {
	var bike listingdomain.Bike
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/bikes/%d", id), token, payload, &bike, "Update failed"); err != nil {
		return nil, err
	}
	return &bike, nil
}

// DeleteBike removes a listing the caller owns.
func (c *Client) DeleteBike(ctx context.Context, token string, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/bikes/%d", id), token, nil, nil, "Delete failed")
}
