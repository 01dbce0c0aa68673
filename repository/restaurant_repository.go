package repository

import (
	"context"

	"gorm.io/gorm"

	"food-ordering-api/models"
)

// RestaurantRepository is the catalog store. Menu items live inside their
// restaurant row and are only written through SaveMenu.
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	FindByID(ctx context.Context, id uint) (*models.Restaurant, error)
	List(ctx context.Context, activeOnly bool) ([]models.Restaurant, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SaveMenu(ctx context.Context, id uint, expectedVersion int, menu models.Menu) error
}

type restaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository builds a GORM-backed repository.
func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	return r.db.WithContext(ctx).Create(restaurant).Error
}

func (r *restaurantRepository) FindByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (r *restaurantRepository) List(ctx context.Context, activeOnly bool) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	query := r.db.WithContext(ctx).Order("name asc").Order("id asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

// UpdateFields sets only the given columns. Concurrent writers to the same
// column resolve last-write-wins.
func (r *restaurantRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

// SaveMenu replaces the embedded menu if the row is still at expectedVersion.
func (r *restaurantRepository) SaveMenu(ctx context.Context, id uint, expectedVersion int, menu models.Menu) error {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"menu":    menu,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.ensureExists(ctx, id); err != nil {
			return err
		}
		return ErrStaleVersion
	}
	return nil
}

func (r *restaurantRepository) ensureExists(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
