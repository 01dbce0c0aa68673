package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"
	"food-ordering-api/repository"
	"food-ordering-api/storage"
)

// maxMenuWriteAttempts bounds retries when another admin changed the menu
// between our read and our write.
const maxMenuWriteAttempts = 3

type CreateRestaurantInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Cuisine     string  `json:"cuisine"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	Rating      float64 `json:"rating"`
}

// RestaurantPatch holds the fields of a partial restaurant update. Nil
// fields are left unchanged. The menu is only changed through the menu
// item operations.
type RestaurantPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Cuisine     *string  `json:"cuisine"`
	Address     *string  `json:"address"`
	Phone       *string  `json:"phone"`
	Rating      *float64 `json:"rating"`
	IsActive    *bool    `json:"isActive"`
}

// MenuItemInput is accepted as JSON or as multipart form fields.
type MenuItemInput struct {
	Name        string   `json:"name" form:"name" validate:"required,max=200"`
	Description string   `json:"description" form:"description" validate:"max=2000"`
	Price       *float64 `json:"price" form:"price" validate:"required,gte=0"`
	Category    string   `json:"category" form:"category" validate:"required,max=100"`
}

type MenuItemPatch struct {
	Name        *string  `json:"name" form:"name"`
	Description *string  `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price"`
	Category    *string  `json:"category" form:"category"`
}

// MenuView is the response of GetMenu.
type MenuView struct {
	Menu     models.Menu `json:"menu"`
	IsActive bool        `json:"isActive"`
}

// CatalogService manages restaurants and their embedded menus.
type CatalogService struct {
	restaurants repository.RestaurantRepository
	images      storage.ImageStore
	logger      *logrus.Logger
}

func NewCatalogService(restaurants repository.RestaurantRepository, images storage.ImageStore, logger *logrus.Logger) *CatalogService {
	return &CatalogService{restaurants: restaurants, images: images, logger: logger}
}

func (s *CatalogService) CreateRestaurant(ctx context.Context, caller *Identity, in CreateRestaurantInput) (*models.Restaurant, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	restaurant := &models.Restaurant{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Cuisine:     strings.TrimSpace(in.Cuisine),
		Address:     strings.TrimSpace(in.Address),
		Phone:       in.Phone,
		Rating:      in.Rating,
		IsActive:    true,
		Menu:        models.Menu{},
		Version:     1,
	}
	if err := validateStruct(restaurant); err != nil {
		return nil, err
	}
	if err := s.restaurants.Create(ctx, restaurant); err != nil {
		return nil, apperrors.Internal("Failed to create restaurant", err)
	}
	s.logger.WithField("restaurant_id", restaurant.ID).Info("restaurant created")
	return restaurant, nil
}

// ListRestaurants returns every restaurant to admins and only active ones to
// everybody else.
func (s *CatalogService) ListRestaurants(ctx context.Context, caller *Identity) ([]models.Restaurant, error) {
	restaurants, err := s.restaurants.List(ctx, roleOf(caller) != models.RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch restaurants", err)
	}
	return restaurants, nil
}

// GetRestaurant returns a restaurant with its menu, hiding inactive ones
// from non-admins.
func (s *CatalogService) GetRestaurant(ctx context.Context, caller *Identity, id uint) (*models.Restaurant, error) {
	restaurant, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsActive && roleOf(caller) != models.RoleAdmin {
		return nil, apperrors.Forbidden("Restaurant is not active")
	}
	return restaurant, nil
}

func (s *CatalogService) GetMenu(ctx context.Context, caller *Identity, id uint) (*MenuView, error) {
	restaurant, err := s.GetRestaurant(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return &MenuView{Menu: restaurant.Menu, IsActive: restaurant.IsActive}, nil
}

func (s *CatalogService) UpdateRestaurantStatus(ctx context.Context, caller *Identity, id uint, isActive bool) (*models.Restaurant, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.updateFields(ctx, id, map[string]interface{}{"is_active": isActive}); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"restaurant_id": id, "is_active": isActive}).Info("restaurant status updated")
	return s.find(ctx, id)
}

// UpdateRestaurant applies a partial update after validating the merged
// record.
func (s *CatalogService) UpdateRestaurant(ctx context.Context, caller *Identity, id uint, patch RestaurantPatch) (*models.Restaurant, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	restaurant, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		restaurant.Name = strings.TrimSpace(*patch.Name)
		fields["name"] = restaurant.Name
	}
	if patch.Description != nil {
		restaurant.Description = *patch.Description
		fields["description"] = restaurant.Description
	}
	if patch.Cuisine != nil {
		restaurant.Cuisine = strings.TrimSpace(*patch.Cuisine)
		fields["cuisine"] = restaurant.Cuisine
	}
	if patch.Address != nil {
		restaurant.Address = strings.TrimSpace(*patch.Address)
		fields["address"] = restaurant.Address
	}
	if patch.Phone != nil {
		restaurant.Phone = *patch.Phone
		fields["phone"] = restaurant.Phone
	}
	if patch.Rating != nil {
		restaurant.Rating = *patch.Rating
		fields["rating"] = restaurant.Rating
	}
	if patch.IsActive != nil {
		restaurant.IsActive = *patch.IsActive
		fields["is_active"] = restaurant.IsActive
	}
	if len(fields) == 0 {
		return restaurant, nil
	}

	if err := validateStruct(restaurant); err != nil {
		return nil, err
	}
	if err := s.updateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// AddMenuItem appends a new item to the restaurant's menu. The image, when
// given, is stored before the menu is written.
func (s *CatalogService) AddMenuItem(ctx context.Context, caller *Identity, restaurantID uint, in MenuItemInput, image *multipart.FileHeader) (*models.MenuItem, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, restaurantID); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Category:    in.Category,
	}
	if image != nil {
		ref, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		item.Image = ref
	}

	err := s.writeMenu(ctx, restaurantID, func(menu models.Menu) (models.Menu, error) {
		return append(menu, item), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"restaurant_id": restaurantID, "item_id": item.ID}).Info("menu item added")
	return &item, nil
}

// EditMenuItem merges the patch into an existing menu item in place.
func (s *CatalogService) EditMenuItem(ctx context.Context, caller *Identity, restaurantID uint, itemID string, patch MenuItemPatch, image *multipart.FileHeader) (*models.MenuItem, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	restaurant, err := s.find(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.FindItem(itemID) == nil {
		return nil, apperrors.NotFound("Menu item not found")
	}

	var imageRef string
	if image != nil {
		if imageRef, err = s.saveImage(ctx, image); err != nil {
			return nil, err
		}
	}

	var updated models.MenuItem
	err = s.writeMenu(ctx, restaurantID, func(menu models.Menu) (models.Menu, error) {
		idx := -1
		for i := range menu {
			if menu[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, apperrors.NotFound("Menu item not found")
		}

		item := menu[idx]
		if patch.Name != nil {
			item.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			item.Description = *patch.Description
		}
		if patch.Price != nil {
			item.Price = *patch.Price
		}
		if patch.Category != nil {
			item.Category = strings.TrimSpace(*patch.Category)
		}
		if imageRef != "" {
			item.Image = imageRef
		}
		if err := validateStruct(item); err != nil {
			return nil, err
		}

		menu[idx] = item
		updated = item
		return menu, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"restaurant_id": restaurantID, "item_id": itemID}).Info("menu item updated")
	return &updated, nil
}

// writeMenu reads the current menu, applies mutate to a copy and saves it
// against the version that was read, retrying if a concurrent writer won.
func (s *CatalogService) writeMenu(ctx context.Context, restaurantID uint, mutate func(models.Menu) (models.Menu, error)) error {
	for attempt := 1; attempt <= maxMenuWriteAttempts; attempt++ {
		restaurant, err := s.find(ctx, restaurantID)
		if err != nil {
			return err
		}

		menu := make(models.Menu, len(restaurant.Menu))
		copy(menu, restaurant.Menu)
		menu, err = mutate(menu)
		if err != nil {
			return err
		}

		err = s.restaurants.SaveMenu(ctx, restaurantID, restaurant.Version, menu)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrStaleVersion):
			s.logger.WithFields(logrus.Fields{"restaurant_id": restaurantID, "attempt": attempt}).
				Debug("menu changed concurrently, retrying")
			continue
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NotFound("Restaurant not found")
		default:
			return apperrors.Internal("Failed to save menu", err)
		}
	}
	return apperrors.Conflict("Menu was modified concurrently, please retry")
}

func (s *CatalogService) saveImage(ctx context.Context, image *multipart.FileHeader) (string, error) {
	ref, err := s.images.Save(ctx, image)
	if err != nil {
		var uploadErr *storage.UploadError
		if errors.As(err, &uploadErr) {
			return "", apperrors.Validation(uploadErr.Message)
		}
		return "", apperrors.Internal("Failed to store image", err)
	}
	return ref, nil
}

func (s *CatalogService) find(ctx context.Context, id uint) (*models.Restaurant, error) {
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Restaurant not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch restaurant", err)
	}
	return restaurant, nil
}

func (s *CatalogService) updateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	err := s.restaurants.UpdateFields(ctx, id, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Restaurant not found")
	}
	if err != nil {
		return apperrors.Internal("Failed to update restaurant", err)
	}
	return nil
}
