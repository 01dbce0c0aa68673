package cart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-ordering-api/client"
	"food-ordering-api/models"
)

var (
	pizza = models.MenuItem{ID: "p1", Name: "Margherita", Price: 9.99, Category: "Pizza"}
	soda  = models.MenuItem{ID: "s1", Name: "Soda", Price: 2.5, Category: "Drinks"}
)

func TestAddIncrementsExistingLine(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, pizza))
	require.NoError(t, c.Add(1, pizza))
	require.NoError(t, c.Add(1, soda))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, "22.48", c.Total().StringFixed(2))
}

func TestAddFromAnotherRestaurant(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, pizza))
	assert.ErrorIs(t, c.Add(2, soda), ErrOtherRestaurant)

	c.Clear()
	require.NoError(t, c.Add(2, soda))
	assert.Equal(t, uint(2), c.RestaurantID)
}

func TestAdjustClampsAtOne(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, pizza))

	require.NoError(t, c.Adjust("p1", 3))
	assert.Equal(t, 4, c.Lines[0].Quantity)
	require.NoError(t, c.Adjust("p1", -10))
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.ErrorIs(t, c.Adjust("nope", 1), ErrUnknownItem)
}

func TestRemoveLastLineResetsRestaurant(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, pizza))
	c.Remove("missing")
	assert.Len(t, c.Lines, 1)

	c.Remove("p1")
	assert.True(t, c.Empty())
	assert.Zero(t, c.RestaurantID)
	require.NoError(t, c.Add(5, soda))
}

func TestOrderRequest(t *testing.T) {
	var c Cart
	_, err := c.OrderRequest()
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, c.Add(3, pizza))
	require.NoError(t, c.Adjust("p1", 1))
	req, err := c.OrderRequest()
	require.NoError(t, err)
	assert.Equal(t, uint(3), req.RestaurantID)
	assert.Equal(t, []client.OrderLine{{ItemID: "p1", Quantity: 2}}, req.Items)
	require.NotNil(t, req.Total)
	assert.InDelta(t, 19.98, *req.Total, 0.0001)
}

type placerFunc func(context.Context, client.PlaceOrderRequest) (*models.OrderView, error)

func (f placerFunc) PlaceOrder(ctx context.Context, req client.PlaceOrderRequest) (*models.OrderView, error) {
	return f(ctx, req)
}

func TestCheckout(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(3, pizza))

	_, err := c.Checkout(context.Background(), placerFunc(func(context.Context, client.PlaceOrderRequest) (*models.OrderView, error) {
		return nil, errors.New("restaurant closed")
	}))
	require.Error(t, err)
	assert.False(t, c.Empty(), "failed checkout keeps the cart")

	order, err := c.Checkout(context.Background(), placerFunc(func(_ context.Context, req client.PlaceOrderRequest) (*models.OrderView, error) {
		return &models.OrderView{ID: 1, RestaurantID: req.RestaurantID, Status: models.StatusPending}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, uint(3), order.RestaurantID)
	assert.True(t, c.Empty())
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state", "cart.json"))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	var c Cart
	require.NoError(t, c.Add(7, pizza))
	require.NoError(t, c.Add(7, soda))
	require.NoError(t, store.Save(&c))

	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, c, *loaded)

	c.Clear()
	require.NoError(t, store.Save(&c))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}
