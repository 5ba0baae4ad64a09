package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingdomain "github.com/veronicavalera/gritgirls/internal/listing/domain"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
	"github.com/veronicavalera/gritgirls/internal/platform/metrics"
	"github.com/veronicavalera/gritgirls/internal/testutil/fakeapi"
)

func newClient(t *testing.T) (*Client, *fakeapi.Server) {
	t.Helper()
	srv := fakeapi.New(t)
	return NewClient(srv.URL, nil, logger.Nop(), metrics.NewMetricsManager("test")), srv
}

func TestClient_BikeRoundTrip(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	created, err := c.CreateBike(ctx, srv.Token, map[string]any{
		"title":     "Specialized Allez",
		"price_usd": 650,
		"photos":    []string{"/api/uploads/a.jpg"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.IsActive)

	got, err := c.GetBike(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Specialized Allez", got.Title)
	require.NotNil(t, got.PriceUSD)
	assert.Equal(t, 650, *got.PriceUSD)
	assert.Equal(t, []string{"/api/uploads/a.jpg"}, got.Photos)

	updated, err := c.UpdateBike(ctx, srv.Token, created.ID, map[string]any{"title": "Allez Sprint", "year": nil})
	require.NoError(t, err)
	assert.Equal(t, "Allez Sprint", updated.Title)
	assert.Nil(t, updated.Year)

	bikes, err := c.ListBikes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, bikes, 1)
}

func TestClient_GetBikeNotFound(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.GetBike(context.Background(), 404)
	require.Error(t, err)
	assert.ErrorIs(t, err, listingdomain.ErrBikeNotFound)
	assert.Equal(t, "Bike not found", err.Error())
}

func TestClient_CreateBikeNeedsToken(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.CreateBike(context.Background(), "", map[string]any{"title": "x"})
	var apiErr *listingdomain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Failed to create listing", apiErr.Message)
}

func TestClient_Login(t *testing.T) {
	c, srv := newClient(t)

	resp, err := c.Login(context.Background(), "  Rider@Example.com ", srv.Password)
	require.NoError(t, err)
	assert.Equal(t, srv.Token, resp.AccessToken)
	assert.Equal(t, srv.Email, resp.User.Email)

	_, err = c.Login(context.Background(), srv.Email, "nope")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/api/bikes/{id}", routeLabel("/api/bikes/42"))
	assert.Equal(t, "/api/bikes", routeLabel("/api/bikes"))
	assert.Equal(t, "/api/bikes", routeLabel("/api/bikes?state=NJ"))
}

func TestClient_ListBikesByState(t *testing.T) {
	c, srv := newClient(t)
	srv.SeedBike(map[string]any{"title": "Jersey gravel", "state": "NJ"})
	srv.SeedBike(map[string]any{"title": "Brooklyn fixie", "state": "NY"})
	srv.SeedBike(map[string]any{"title": "No state"})

	bikes, err := c.ListBikes(context.Background(), " nj ")
	require.NoError(t, err)
	require.Len(t, bikes, 1)
	assert.Equal(t, "Jersey gravel", bikes[0].Title)

	all, err := c.ListBikes(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClient_DeleteBike(t *testing.T) {
	c, srv := newClient(t)
	id := srv.SeedBike(map[string]any{"title": "Sold already"})

	require.NoError(t, c.DeleteBike(context.Background(), srv.Token, id))
	assert.Nil(t, srv.Bike(id))

	err := c.DeleteBike(context.Background(), srv.Token, id)
	assert.ErrorIs(t, err, listingdomain.ErrBikeNotFound)

	var apiErr *listingdomain.APIError
	err = c.DeleteBike(context.Background(), "", id)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Delete failed", apiErr.Message)
}

func TestClient_Signup(t *testing.T) {
	c, srv := newClient(t)

	resp, err := c.Signup(context.Background(), " New@Rider.org ", "pedal")
	require.NoError(t, err)
	assert.Equal(t, "new@rider.org", resp.User.Email)
	assert.Equal(t, srv.Token, resp.AccessToken)

	_, err = c.Login(context.Background(), "new@rider.org", "pedal")
	require.NoError(t, err)

	_, err = c.Signup(context.Background(), "new@rider.org", "again")
	require.Error(t, err)
	assert.Equal(t, "email already registered", err.Error())

	_, err = c.Signup(context.Background(), "", "")
	assert.Equal(t, "email and password are required", err.Error())
}
