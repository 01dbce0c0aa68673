// Package cart is the client-side basket a customer fills from one
// restaurant's menu before placing an order.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"food-ordering-api/client"
	"food-ordering-api/models"
)

var (
	ErrEmpty           = errors.New("cart is empty")
	ErrOtherRestaurant = errors.New("cart holds items from another restaurant")
	ErrUnknownItem     = errors.New("item is not in the cart")
)

type Line struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"qty"`
}

type Cart struct {
	RestaurantID uint   `json:"restaurantId,omitempty"`
	Lines        []Line `json:"lines"`
}

// Add puts one unit of item in the cart. A cart only ever holds items from a
// single restaurant; callers must Clear it before switching.
func (c *Cart) Add(restaurantID uint, item models.MenuItem) error {
	if len(c.Lines) > 0 && c.RestaurantID != restaurantID {
		return ErrOtherRestaurant
	}
	c.RestaurantID = restaurantID
	if i := c.index(item.ID); i >= 0 {
		c.Lines[i].Quantity++
		return nil
	}
	c.Lines = append(c.Lines, Line{ItemID: item.ID, Name: item.Name, Price: item.Price, Quantity: 1})
	return nil
}

// Adjust changes a line's quantity by delta, never going below 1.
func (c *Cart) Adjust(itemID string, delta int) error {
	i := c.index(itemID)
	if i < 0 {
		return ErrUnknownItem
	}
	c.Lines[i].Quantity += delta
	if c.Lines[i].Quantity < 1 {
		c.Lines[i].Quantity = 1
	}
	return nil
}

func (c *Cart) Remove(itemID string) {
	i := c.index(itemID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	if len(c.Lines) == 0 {
		c.RestaurantID = 0
	}
}

func (c *Cart) Clear() {
	c.RestaurantID = 0
	c.Lines = nil
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

// OrderRequest converts the cart into a place-order request carrying the
// client-side total.
func (c *Cart) OrderRequest() (client.PlaceOrderRequest, error) {
	if c.Empty() {
		return client.PlaceOrderRequest{}, ErrEmpty
	}
	items := make([]client.OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, client.OrderLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	total, _ := c.Total().Float64()
	return client.PlaceOrderRequest{RestaurantID: c.RestaurantID, Items: items, Total: &total}, nil
}

// OrderPlacer is satisfied by *client.Client.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req client.PlaceOrderRequest) (*models.OrderView, error)
}

// Checkout places the order and empties the cart once the server accepts it.
// On failure the cart is left untouched.
func (c *Cart) Checkout(ctx context.Context, placer OrderPlacer) (*models.OrderView, error) {
	req, err := c.OrderRequest()
	if err != nil {
		return nil, err
	}
	order, err := placer.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	c.Clear()
	return order, nil
}

func (c *Cart) index(itemID string) int {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// FileStore persists a cart as a JSON document on disk.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load returns the stored cart, or an empty one when nothing was saved yet.
func (s *FileStore) Load() (*Cart, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save writes the cart atomically. An empty cart removes the file.
func (s *FileStore) Save(c *Cart) error {
	if c.Empty() {
		return s.Delete()
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cart: %w", err)
	}
	return nil
}
