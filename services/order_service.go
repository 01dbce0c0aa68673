package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"food-ordering-api/apperrors"
	"food-ordering-api/events"
	"food-ordering-api/models"
	"food-ordering-api/repository"
	"food-ordering-api/statemachine"
)

// TotalPolicy decides which total is stored on a new order.
type TotalPolicy string

const (
	// TotalRecompute stores the sum of menu price × quantity.
	TotalRecompute TotalPolicy = "recompute"
	// TotalTrust stores the total sent by the client.
	TotalTrust TotalPolicy = "trust"
)

func ParseTotalPolicy(s string) (TotalPolicy, error) {
	switch TotalPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TotalRecompute:
		return TotalRecompute, nil
	case TotalTrust:
		return TotalTrust, nil
	default:
		return "", fmt.Errorf("unknown order total policy %q", s)
	}
}

type PlaceOrderLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type PlaceOrderInput struct {
	RestaurantID uint             `json:"restaurantId"`
	Items        []PlaceOrderLine `json:"items"`
	Total        *float64         `json:"total"`
}

// TransitionInfo describes the status workflow currently in force.
type TransitionInfo struct {
	Statuses    []models.OrderStatus      `json:"statuses"`
	Policy      statemachine.Policy       `json:"policy"`
	Transitions []statemachine.Transition `json:"transitions"`
}

// OrderService places orders and moves them through their statuses.
type OrderService struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
	machine     *statemachine.Machine
	totals      TotalPolicy
	publisher   events.Publisher
	logger      *logrus.Logger
	now         func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	restaurants repository.RestaurantRepository,
	machine *statemachine.Machine,
	totals TotalPolicy,
	publisher events.Publisher,
	logger *logrus.Logger,
) *OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &OrderService{
		orders:      orders,
		restaurants: restaurants,
		machine:     machine,
		totals:      totals,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrder validates the cart against the restaurant's current menu and
// stores a Pending order.
func (s *OrderService) PlaceOrder(ctx context.Context, caller *Identity, in PlaceOrderInput) (*models.OrderView, error) {
	if caller == nil {
		return nil, apperrors.Unauthenticated("Authorization token required")
	}
	if in.RestaurantID == 0 {
		return nil, apperrors.Validation("restaurantId is required")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.Validation("Order must contain at least one item")
	}
	for i, line := range in.Items {
		if strings.TrimSpace(line.ItemID) == "" {
			return nil, apperrors.Validation(fmt.Sprintf("items[%d].itemId is required", i))
		}
		if line.Quantity < 1 {
			return nil, apperrors.Validation(fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
	}
	if in.Total != nil && *in.Total < 0 {
		return nil, apperrors.Validation("total must not be negative")
	}

	restaurant, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Restaurant not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to place order", err)
	}
	if !restaurant.IsActive && !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Restaurant is not accepting orders")
	}

	lines := make(models.OrderLines, 0, len(in.Items))
	computed := decimal.Zero
	for _, line := range in.Items {
		item := restaurant.FindItem(line.ItemID)
		if item == nil {
			return nil, apperrors.Validation(fmt.Sprintf("Menu item %s not found in restaurant", line.ItemID))
		}
		lines = append(lines, models.OrderLine{ItemID: line.ItemID, Quantity: line.Quantity})
		computed = computed.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	total := s.chooseTotal(computed.Round(2), in.Total, caller.UserID)

	order := &models.Order{
		UserID:       caller.UserID,
		RestaurantID: restaurant.ID,
		Items:        lines,
		Status:       models.StatusPending,
		Total:        total,
	}
	initial := models.OrderStatusHistory{
		ToStatus:  models.StatusPending,
		ChangedBy: caller.UserID,
		Note:      "order placed",
	}
	if err := s.orders.Create(ctx, order, initial); err != nil {
		return nil, apperrors.Internal("Failed to place order", err)
	}
	order.Restaurant = *restaurant

	s.logger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"user_id":       order.UserID,
		"restaurant_id": order.RestaurantID,
		"total":         order.Total,
	}).Info("order placed")
	s.publish(ctx, events.Event{
		Type:         events.TypeOrderPlaced,
		OrderID:      order.ID,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Total:        order.Total,
		Timestamp:    s.now(),
	})

	view := buildOrderView(order, false, false)
	return &view, nil
}

func (s *OrderService) chooseTotal(computed decimal.Decimal, client *float64, userID uint) float64 {
	if s.totals == TotalTrust {
		if client != nil {
			return *client
		}
		return computed.InexactFloat64()
	}
	if client != nil && !decimal.NewFromFloat(*client).Round(2).Equal(computed) {
		s.logger.WithFields(logrus.Fields{
			"user_id":      userID,
			"client_total": *client,
			"total":        computed.String(),
		}).Warn("client order total does not match menu prices, using computed total")
	}
	return computed.InexactFloat64()
}

// ListOrdersForUser returns the caller's own orders, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, caller *Identity) ([]models.OrderView, error) {
	if caller == nil {
		return nil, apperrors.Unauthenticated("Authorization token required")
	}
	orders, err := s.orders.ListByUser(ctx, caller.UserID, repository.OrderQuery{})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return buildOrderViews(orders, false), nil
}

// ListAllOrders returns every order with the owning user attached.
func (s *OrderService) ListAllOrders(ctx context.Context, caller *Identity) ([]models.OrderView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx, repository.OrderQuery{WithUser: true})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return buildOrderViews(orders, true), nil
}

// GetOrder returns one order with its status history to its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, caller *Identity, orderID uint) (*models.OrderView, error) {
	if caller == nil {
		return nil, apperrors.Unauthenticated("Authorization token required")
	}
	order, err := s.find(ctx, orderID, repository.OrderQuery{WithUser: caller.IsAdmin(), WithHistory: true})
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, apperrors.Forbidden("You can only view your own orders")
	}
	view := buildOrderView(order, caller.IsAdmin(), true)
	return &view, nil
}

// UpdateOrderStatus lets an admin move an order to another status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, caller *Identity, orderID uint, status models.OrderStatus) (*models.OrderView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !statemachine.IsValidStatus(status) {
		return nil, apperrors.Validation("Invalid status. Must be one of: " + statusList())
	}
	return s.transition(ctx, caller, orderID, status, statemachine.ActorAdmin, "")
}

// CancelOrder lets the owner withdraw an order that is still Pending.
func (s *OrderService) CancelOrder(ctx context.Context, caller *Identity, orderID uint) (*models.OrderView, error) {
	if caller == nil {
		return nil, apperrors.Unauthenticated("Authorization token required")
	}
	order, err := s.find(ctx, orderID, repository.OrderQuery{})
	if err != nil {
		return nil, err
	}
	actor := statemachine.ActorCustomer
	if caller.IsAdmin() {
		actor = statemachine.ActorAdmin
	} else if order.UserID != caller.UserID {
		return nil, apperrors.Forbidden("You can only cancel your own orders")
	}
	return s.transition(ctx, caller, orderID, models.StatusCancelled, actor, "cancelled by "+string(actor))
}

// Transitions describes the configured workflow.
func (s *OrderService) Transitions() TransitionInfo {
	return TransitionInfo{
		Statuses:    statemachine.Statuses,
		Policy:      s.machine.Policy(),
		Transitions: s.machine.Transitions(),
	}
}

func (s *OrderService) transition(ctx context.Context, caller *Identity, orderID uint, to models.OrderStatus, actor statemachine.Actor, note string) (*models.OrderView, error) {
	order, err := s.find(ctx, orderID, repository.OrderQuery{})
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := s.machine.CanTransition(from, to, actor); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	history := models.OrderStatusHistory{
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  caller.UserID,
		Note:       note,
	}
	err = s.orders.UpdateStatus(ctx, orderID, to, history)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
		"actor":    actor,
		"user_id":  caller.UserID,
	}).Info("order status changed")
	s.publish(ctx, events.Event{
		Type:         events.TypeOrderStatusChanged,
		OrderID:      order.ID,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		OldStatus:    from,
		Status:       to,
		Total:        order.Total,
		ChangedBy:    caller.UserID,
		Timestamp:    s.now(),
	})

	updated, err := s.find(ctx, orderID, repository.OrderQuery{WithUser: caller.IsAdmin(), WithHistory: true})
	if err != nil {
		return nil, err
	}
	view := buildOrderView(updated, caller.IsAdmin(), true)
	return &view, nil
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":    event.Type,
			"order_id": event.OrderID,
		}).Error("failed to publish order event")
	}
}

func (s *OrderService) find(ctx context.Context, orderID uint, q repository.OrderQuery) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID, q)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

func statusList() string {
	parts := make([]string, len(statemachine.Statuses))
	for i, st := range statemachine.Statuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}

func buildOrderViews(orders []models.Order, withUser bool) []models.OrderView {
	views := make([]models.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, buildOrderView(&orders[i], withUser, false))
	}
	return views
}

// buildOrderView resolves each line against the restaurant's current menu.
// Items removed from the menu since the order was placed resolve to nil.
func buildOrderView(order *models.Order, withUser, withHistory bool) models.OrderView {
	view := models.OrderView{
		ID:           order.ID,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		Items:        make([]models.ResolvedLine, 0, len(order.Items)),
		Status:       order.Status,
		Total:        order.Total,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if order.Restaurant.ID != 0 {
		summary := order.Restaurant.Summary()
		view.Restaurant = &summary
	}
	if withUser && order.User.ID != 0 {
		summary := order.User.Summary()
		view.User = &summary
	}
	for _, line := range order.Items {
		resolved := models.ResolvedLine{ItemID: line.ItemID, Quantity: line.Quantity}
		if item := order.Restaurant.FindItem(line.ItemID); item != nil {
			copied := *item
			resolved.Item = &copied
		}
		view.Items = append(view.Items, resolved)
	}
	if withHistory {
		view.StatusHistory = order.StatusHistory
	}
	return view
}
