package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"food-ordering-api/models"
)

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      models.User `json:"user"`
}

type Identity struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

type MenuResponse struct {
	Menu     models.Menu `json:"menu"`
	IsActive bool        `json:"isActive"`
}

type OrderLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	RestaurantID uint        `json:"restaurantId"`
	Items        []OrderLine `json:"items"`
	Total        *float64    `json:"total,omitempty"`
}

type RestaurantRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Cuisine     string  `json:"cuisine"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone,omitempty"`
	Rating      float64 `json:"rating"`
}

type MenuItemRequest struct {
	Name        string
	Description string
	Price       float64
	Category    string
}

// Image is an optional upload attached to a menu item request.
type Image struct {
	Filename string
	Content  io.Reader
}

// ── Auth ──────────────────────────────────────────────────────────

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	return c.signup(ctx, "/auth/register", name, email, password)
}

func (c *Client) RegisterAdmin(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	return c.signup(ctx, "/auth/register-admin", name, email, password)
}

func (c *Client) signup(ctx context.Context, path, name, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) VerifyAdminCode(ctx context.Context, code string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify-admin-code", map[string]string{"adminCode": code}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the token server-side and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Restaurants ───────────────────────────────────────────────────

func (c *Client) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	return out, c.doJSON(ctx, http.MethodGet, "/restaurants", nil, &out)
}

func (c *Client) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var out models.Restaurant
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMenu(ctx context.Context, id uint) (*MenuResponse, error) {
	var out MenuResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%d/menu", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRestaurantStatus(ctx context.Context, id uint, isActive bool) (*models.Restaurant, error) {
	var out models.Restaurant
	in := map[string]bool{"isActive": isActive}
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/restaurants/%d/status", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Orders ────────────────────────────────────────────────────────

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.OrderView, error) {
	var out models.OrderView
	if err := c.doJSON(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.OrderView, error) {
	var out []models.OrderView
	return out, c.doJSON(ctx, http.MethodGet, "/orders", nil, &out)
}

func (c *Client) GetOrder(ctx context.Context, id uint) (*models.OrderView, error) {
	var out models.OrderView
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, id uint) (*models.OrderView, error) {
	var out struct {
		Order models.OrderView `json:"order"`
	}
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d/cancel", id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// ── Admin ─────────────────────────────────────────────────────────

func (c *Client) AdminOrders(ctx context.Context) ([]models.OrderView, error) {
	var out []models.OrderView
	return out, c.doJSON(ctx, http.MethodGet, "/admin/orders", nil, &out)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.OrderView, error) {
	var out models.OrderView
	in := map[string]models.OrderStatus{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	return out, c.doJSON(ctx, http.MethodGet, "/admin/restaurants", nil, &out)
}

func (c *Client) CreateRestaurant(ctx context.Context, req RestaurantRequest) (*models.Restaurant, error) {
	var out models.Restaurant
	if err := c.doJSON(ctx, http.MethodPost, "/admin/restaurants", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRestaurant sends only the given fields.
func (c *Client) UpdateRestaurant(ctx context.Context, id uint, fields map[string]interface{}) (*models.Restaurant, error) {
	var out models.Restaurant
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/admin/restaurants/%d", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddMenuItem(ctx context.Context, restaurantID uint, req MenuItemRequest, image *Image) (*models.MenuItem, error) {
	fields := map[string]string{
		"name":        req.Name,
		"description": req.Description,
		"price":       strconv.FormatFloat(req.Price, 'f', -1, 64),
		"category":    req.Category,
	}
	var out models.MenuItem
	path := fmt.Sprintf("/admin/restaurants/%d/menu", restaurantID)
	if err := c.doMultipart(ctx, http.MethodPost, path, fields, image, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditMenuItem sends only the given fields, plus an optional new image.
func (c *Client) EditMenuItem(ctx context.Context, restaurantID uint, itemID string, fields map[string]string, image *Image) (*models.MenuItem, error) {
	var out models.MenuItem
	path := fmt.Sprintf("/admin/restaurants/%d/menu/%s", restaurantID, itemID)
	if err := c.doMultipart(ctx, http.MethodPut, path, fields, image, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, image *Image, out interface{}) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field: %w", err)
		}
	}
	if image != nil {
		part, err := form.CreateFormFile("image", image.Filename)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, image.Content); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}
	return c.do(ctx, method, path, &body, form.FormDataContentType(), out)
}
