package repository

import (
	"context"

	"gorm.io/gorm"

	"food-ordering-api/models"
)

// OrderQuery selects which relations are loaded alongside orders.
type OrderQuery struct {
	WithUser    bool
	WithHistory bool
}

// OrderRepository is the order store.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, initial models.OrderStatusHistory) error
	FindByID(ctx context.Context, id uint, q OrderQuery) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint, q OrderQuery) ([]models.Order, error)
	ListAll(ctx context.Context, q OrderQuery) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, history models.OrderStatusHistory) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds a GORM-backed repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order together with its first history row.
func (r *orderRepository) Create(ctx context.Context, order *models.Order, initial models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Restaurant", "StatusHistory").Create(order).Error; err != nil {
			return err
		}
		initial.OrderID = order.ID
		return tx.Create(&initial).Error
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint, q OrderQuery) (*models.Order, error) {
	var order models.Order
	if err := r.preload(ctx, q).First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint, q OrderQuery) ([]models.Order, error) {
	var orders []models.Order
	err := r.preload(ctx, q).
		Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	var orders []models.Order
	err := r.preload(ctx, q).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the status unconditionally (last write wins) and appends
// the history row in the same transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, history models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
		}
		history.OrderID = id
		return tx.Create(&history).Error
	})
}

func (r *orderRepository) preload(ctx context.Context, q OrderQuery) *gorm.DB {
	query := r.db.WithContext(ctx).Preload("Restaurant")
	if q.WithUser {
		query = query.Preload("User")
	}
	if q.WithHistory {
		query = query.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc").Order("id asc")
		})
	}
	return query
}
