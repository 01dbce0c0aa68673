package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"
	"food-ordering-api/statemachine"
	"food-ordering-api/storage"
)

type fakeImageStore struct {
	ref string
	err error
}

func (f *fakeImageStore) Save(context.Context, *multipart.FileHeader) (string, error) {
	return f.ref, f.err
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }

func TestCatalogService_CreateRestaurant(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	ctx := context.Background()

	r, err := env.catalog.CreateRestaurant(ctx, rootAdmin, CreateRestaurantInput{
		Name: "Pasta Place", Cuisine: "Italian", Address: "1 Main St", Phone: "555-0100", Rating: 4.2,
	})
	require.NoError(t, err)
	assert.True(t, r.IsActive)
	assert.NotNil(t, r.Menu)
	assert.Len(t, r.Menu, 0)
	assert.Equal(t, 4.2, r.Rating)

	tests := []struct {
		name  string
		input CreateRestaurantInput
		field string
	}{
		{name: "missing name", input: CreateRestaurantInput{Cuisine: "x", Address: "y"}, field: "name"},
		{name: "missing cuisine", input: CreateRestaurantInput{Name: "x", Address: "y"}, field: "cuisine"},
		{name: "missing address", input: CreateRestaurantInput{Name: "x", Cuisine: "y"}, field: "address"},
		{name: "rating too high", input: CreateRestaurantInput{Name: "x", Cuisine: "y", Address: "z", Rating: 5.5}, field: "rating"},
		{name: "rating negative", input: CreateRestaurantInput{Name: "x", Cuisine: "y", Address: "z", Rating: -1}, field: "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreateRestaurant(ctx, rootAdmin, tt.input)
			var appErr *apperrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
}

func TestCatalogService_Visibility(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	ctx := context.Background()
	admin := &Identity{UserID: 1, Role: models.RoleAdmin}
	customer := &Identity{UserID: 2, Role: models.RoleCustomer}

	open, _ := env.restaurantWithItem(t, 10)
	closed, err := env.catalog.CreateRestaurant(ctx, rootAdmin, CreateRestaurantInput{Name: "Closed", Cuisine: "Thai", Address: "2 Side St"})
	require.NoError(t, err)
	closed, err = env.catalog.UpdateRestaurantStatus(ctx, rootAdmin, closed.ID, false)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	for _, caller := range []*Identity{customer, nil} {
		list, err := env.catalog.ListRestaurants(ctx, caller)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, open.ID, list[0].ID)

		_, err = env.catalog.GetMenu(ctx, caller, closed.ID)
		assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	}

	list, err := env.catalog.ListRestaurants(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	menu, err := env.catalog.GetMenu(ctx, admin, closed.ID)
	require.NoError(t, err)
	assert.False(t, menu.IsActive)
	assert.Len(t, menu.Menu, 0)

	menu, err = env.catalog.GetMenu(ctx, customer, open.ID)
	require.NoError(t, err)
	assert.True(t, menu.IsActive)
	assert.Len(t, menu.Menu, 1)

	_, err = env.catalog.GetMenu(ctx, admin, 9999)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = env.catalog.UpdateRestaurantStatus(ctx, rootAdmin, 9999, true)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCatalogService_UpdateRestaurant(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	ctx := context.Background()
	r, item := env.restaurantWithItem(t, 10)

	updated, err := env.catalog.UpdateRestaurant(ctx, rootAdmin, r.ID, RestaurantPatch{Name: strPtr("Pasta Palace"), Rating: floatPtr(3.5), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Pasta Palace", updated.Name)
	assert.Equal(t, 3.5, updated.Rating)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Italian", updated.Cuisine, "unset fields are unchanged")
	require.Len(t, updated.Menu, 1, "menu is untouched")
	assert.Equal(t, item.ID, updated.Menu[0].ID)

	_, err = env.catalog.UpdateRestaurant(ctx, rootAdmin, r.ID, RestaurantPatch{Rating: floatPtr(9)})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = env.catalog.UpdateRestaurant(ctx, rootAdmin, r.ID, RestaurantPatch{Name: strPtr("  ")})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	same, err := env.catalog.UpdateRestaurant(ctx, rootAdmin, r.ID, RestaurantPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Pasta Palace", same.Name)

	_, err = env.catalog.UpdateRestaurant(ctx, rootAdmin, 9999, RestaurantPatch{Name: strPtr("x")})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCatalogService_MenuItems(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	ctx := context.Background()
	admin := &Identity{UserID: 1, Role: models.RoleAdmin}

	r, err := env.catalog.CreateRestaurant(ctx, rootAdmin, CreateRestaurantInput{Name: "Pasta Place", Cuisine: "Italian", Address: "1 Main St"})
	require.NoError(t, err)

	item, err := env.catalog.AddMenuItem(ctx, rootAdmin, r.ID, MenuItemInput{Name: "Carbonara", Price: floatPtr(12.5), Category: "Mains", Description: "Classic"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Empty(t, item.Image)

	fetched, err := env.catalog.GetRestaurant(ctx, admin, r.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Menu, 1)
	assert.Equal(t, *item, fetched.Menu[0])

	withImage, err := env.catalog.AddMenuItem(ctx, rootAdmin, r.ID, MenuItemInput{Name: "Tiramisu", Price: floatPtr(0), Category: "Desserts"}, &multipart.FileHeader{Filename: "t.png"})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/dish.png", withImage.Image)
	assert.Equal(t, 0.0, withImage.Price)

	edited, err := env.catalog.EditMenuItem(ctx, rootAdmin, r.ID, item.ID, MenuItemPatch{Price: floatPtr(13)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 13.0, edited.Price)
	assert.Equal(t, "Carbonara", edited.Name)
	assert.Equal(t, "Classic", edited.Description)

	fetched, err = env.catalog.GetRestaurant(ctx, admin, r.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Menu, 2)
	assert.Equal(t, item.ID, fetched.Menu[0].ID, "order is preserved")
	assert.Equal(t, 13.0, fetched.Menu[0].Price)

	tests := []struct {
		name string
		err  error
		kind apperrors.Kind
	}{
		{
			name: "missing price",
			err:  second(env.catalog.AddMenuItem(ctx, rootAdmin, r.ID, MenuItemInput{Name: "x", Category: "y"}, nil)),
			kind: apperrors.KindValidation,
		},
		{
			name: "negative price",
			err:  second(env.catalog.AddMenuItem(ctx, rootAdmin, r.ID, MenuItemInput{Name: "x", Category: "y", Price: floatPtr(-1)}, nil)),
			kind: apperrors.KindValidation,
		},
		{
			name: "unknown restaurant",
			err:  second(env.catalog.AddMenuItem(ctx, rootAdmin, 9999, MenuItemInput{Name: "x", Category: "y", Price: floatPtr(1)}, nil)),
			kind: apperrors.KindNotFound,
		},
		{
			name: "unknown item",
			err:  second(env.catalog.EditMenuItem(ctx, rootAdmin, r.ID, "missing", MenuItemPatch{Price: floatPtr(1)}, nil)),
			kind: apperrors.KindNotFound,
		},
		{
			name: "edit to negative price",
			err:  second(env.catalog.EditMenuItem(ctx, rootAdmin, r.ID, item.ID, MenuItemPatch{Price: floatPtr(-2)}, nil)),
			kind: apperrors.KindValidation,
		},
		{
			name: "edit unknown restaurant",
			err:  second(env.catalog.EditMenuItem(ctx, rootAdmin, 9999, item.ID, MenuItemPatch{}, nil)),
			kind: apperrors.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperrors.Is(tt.err, tt.kind), "got %v", tt.err)
		})
	}
}

func TestCatalogService_RejectedImage(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	env.catalog.images = &fakeImageStore{err: &storage.UploadError{Code: "INVALID_FILE_FORMAT", Message: "only image uploads are allowed"}}
	ctx := context.Background()

	r, err := env.catalog.CreateRestaurant(ctx, rootAdmin, CreateRestaurantInput{Name: "R", Cuisine: "C", Address: "A"})
	require.NoError(t, err)

	_, err = env.catalog.AddMenuItem(ctx, rootAdmin, r.ID, MenuItemInput{Name: "x", Category: "y", Price: floatPtr(1)}, &multipart.FileHeader{Filename: "x.txt"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "only image uploads are allowed", apperrors.PublicMessage(err))

	fetched, err := env.catalog.GetRestaurant(ctx, &Identity{Role: models.RoleAdmin}, r.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Menu, 0)
}

func TestCatalogService_ConcurrentMenuWrites(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	ctx := context.Background()
	r, err := env.catalog.CreateRestaurant(ctx, rootAdmin, CreateRestaurantInput{Name: "R", Cuisine: "C", Address: "A"})
	require.NoError(t, err)

	const writers = 3
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.catalog.AddMenuItem(ctx, rootAdmin, r.ID, MenuItemInput{Name: "Dish", Category: "Mains", Price: floatPtr(float64(i))}, nil)
		}(i)
	}
	wg.Wait()

	added := 0
	for _, err := range errs {
		if err == nil {
			added++
		} else {
			assert.True(t, apperrors.Is(err, apperrors.KindConflict))
		}
	}

	fetched, err := env.catalog.GetRestaurant(ctx, &Identity{Role: models.RoleAdmin}, r.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Menu, added, "no successful write is lost")
}

func second[T any](_ T, err error) error {
	return err
}

func TestCatalogService_AdminOperationsCheckCaller(t *testing.T) {
	env := newTestEnv(t, statemachine.Permissive, TotalRecompute)
	ctx := context.Background()
	r, item := env.restaurantWithItem(t, 10)
	customer := &Identity{UserID: 2, Role: models.RoleCustomer}

	calls := map[string]func(*Identity) error{
		"create": func(id *Identity) error {
			return second(env.catalog.CreateRestaurant(ctx, id, CreateRestaurantInput{Name: "x", Cuisine: "y", Address: "z"}))
		},
		"status": func(id *Identity) error {
			return second(env.catalog.UpdateRestaurantStatus(ctx, id, r.ID, false))
		},
		"update": func(id *Identity) error {
			return second(env.catalog.UpdateRestaurant(ctx, id, r.ID, RestaurantPatch{Name: strPtr("x")}))
		},
		"add item": func(id *Identity) error {
			return second(env.catalog.AddMenuItem(ctx, id, r.ID, MenuItemInput{Name: "x", Category: "y", Price: floatPtr(1)}, nil))
		},
		"edit item": func(id *Identity) error {
			return second(env.catalog.EditMenuItem(ctx, id, r.ID, item.ID, MenuItemPatch{Price: floatPtr(1)}, nil))
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperrors.Is(call(customer), apperrors.KindForbidden))
			assert.True(t, apperrors.Is(call(nil), apperrors.KindUnauthenticated))
		})
	}

	fetched, err := env.catalog.GetRestaurant(ctx, rootAdmin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pasta Place", fetched.Name)
	assert.True(t, fetched.IsActive)
	require.Len(t, fetched.Menu, 1)
	assert.Equal(t, 10.0, fetched.Menu[0].Price)
}
