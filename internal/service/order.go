package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"widget-shop/internal/model"
)

// OrderService owns the order aggregate and its lifecycle. Every mutation
// runs inside one database transaction with the order row locked, so
// concurrent mutations of the same order serialize; operations on
// different orders are independent.
type OrderService interface {
	Create(ctx context.Context, req *model.OrderCreateRequest) (*model.Order, error)
	Get(ctx context.Context, number string) (*model.Order, error)
	Delete(ctx context.Context, number string) error
	Complete(ctx context.Context, number string) (*model.Order, error)

	ListItems(ctx context.Context, number string) ([]model.OrderItem, error)
	AddItem(ctx context.Context, number string, req *model.OrderItemRequest) (*model.OrderItem, error)
	UpdateItem(ctx context.Context, number string, itemID uint, quantity int64) (*model.OrderItem, error)
	RemoveItem(ctx context.Context, number string, itemID uint) error
}

type orderServiceImpl struct {
	db      *gorm.DB
	stock   StockLedger
	numbers OrderNumberGenerator
}

// NewOrderService creates a new order service.
func NewOrderService(db *gorm.DB, stock StockLedger, numbers OrderNumberGenerator) OrderService {
	return &orderServiceImpl{db: db, stock: stock, numbers: numbers}
}

// maxNumberAttempts bounds the retry loop when a generated order number
// collides with an existing one.
const maxNumberAttempts = 5

// Create allocates a new open order, optionally with one initial item.
// The item, when present, is validated with the add-time stock policy;
// on any failure nothing is persisted.
func (s *orderServiceImpl) Create(ctx context.Context, req *model.OrderCreateRequest) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.uniqueNumber(tx)
		if err != nil {
			return err
		}
		order = &model.Order{Number: number}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if req.WidgetID == 0 && req.Quantity == 0 {
			return nil
		}
		_, err = s.createItem(tx, order, req.WidgetID, req.Quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.Number)
}

// Get fetches an order by number with its items and their widgets.
func (s *orderServiceImpl) Get(ctx context.Context, number string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id")
		}).
		Preload("Items.Widget.Category").
		Preload("Items.Widget.Features").
		Where("number = ?", number).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", number, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// Delete removes an order and all of its items. Stock already committed
// by a completed order is not restored.
func (s *orderServiceImpl) Delete(ctx context.Context, number string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findForUpdate(tx, number)
		if err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Delete(order).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

// Complete transitions an open order to completed. The transition is
// two-phase inside a single transaction: every line item is checked
// against the strict completion-time policy first, and only when all pass
// is any widget's stock deducted. On failure the order stays open and no
// stock changes.
func (s *orderServiceImpl) Complete(ctx context.Context, number string) (*model.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findForUpdate(tx, number)
		if err != nil {
			return err
		}
		if order.Completed {
			return fmt.Errorf("order %s: %w", number, model.ErrOrderCompleted)
		}

		var items []model.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		widgets, err := s.lockWidgets(tx, items)
		if err != nil {
			return err
		}
		for _, item := range items {
			if !s.stock.SufficientForCompletion(widgets[item.WidgetID], item.Quantity) {
				return fmt.Errorf("widget %d: %w", item.WidgetID, model.ErrInsufficientStock)
			}
		}
		for _, item := range items {
			if err := s.stock.Deduct(tx, widgets[item.WidgetID], item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Model(order).Update("completed", true).Error; err != nil {
			return fmt.Errorf("failed to mark order completed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, number)
}

// ListItems returns an order's items with their widgets.
func (s *orderServiceImpl) ListItems(ctx context.Context, number string) ([]model.OrderItem, error) {
	order, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

// AddItem appends a line item to an open order using the add-time stock
// policy. Widget stock is not touched.
func (s *orderServiceImpl) AddItem(ctx context.Context, number string, req *model.OrderItemRequest) (*model.OrderItem, error) {
	var item *model.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOpenForUpdate(tx, number)
		if err != nil {
			return err
		}
		item, err = s.createItem(tx, order, req.WidgetID, req.Quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.getItem(ctx, item.ID)
}

// UpdateItem replaces a line item's quantity, re-validated with the
// add-time stock policy.
func (s *orderServiceImpl) UpdateItem(ctx context.Context, number string, itemID uint, quantity int64) (*model.OrderItem, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOpenForUpdate(tx, number)
		if err != nil {
			return err
		}
		item, err := s.findItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}
		widget, err := s.findWidget(tx, item.WidgetID)
		if err != nil {
			return err
		}
		if err := s.validateQuantity(widget, quantity); err != nil {
			return err
		}
		if err := tx.Model(item).Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to update order item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getItem(ctx, itemID)
}

// RemoveItem deletes a line item from an open order. Removing the last
// item deletes the order itself: empty orders never persist.
func (s *orderServiceImpl) RemoveItem(ctx context.Context, number string, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOpenForUpdate(tx, number)
		if err != nil {
			return err
		}
		item, err := s.findItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to delete order item: %w", err)
		}
		var remaining int64
		if err := tx.Model(&model.OrderItem{}).Where("order_id = ?", order.ID).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining items: %w", err)
		}
		if remaining == 0 {
			if err := tx.Delete(order).Error; err != nil {
				return fmt.Errorf("failed to delete emptied order: %w", err)
			}
		}
		return nil
	})
}

// createItem validates and inserts a line item for an order already held
// under the caller's transaction.
func (s *orderServiceImpl) createItem(tx *gorm.DB, order *model.Order, widgetID uint, quantity int64) (*model.OrderItem, error) {
	widget, err := s.findWidget(tx, widgetID)
	if err != nil {
		return nil, err
	}
	if err := s.validateQuantity(widget, quantity); err != nil {
		return nil, err
	}
	item := &model.OrderItem{OrderID: order.ID, WidgetID: widget.ID, Quantity: quantity}
	if err := tx.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}
	return item, nil
}

func (s *orderServiceImpl) validateQuantity(widget *model.Widget, quantity int64) error {
	if quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}
	if !s.stock.SufficientForAdd(widget, quantity) {
		return fmt.Errorf("widget %d: %w", widget.ID, model.ErrInsufficientStock)
	}
	return nil
}

func (s *orderServiceImpl) findWidget(tx *gorm.DB, id uint) (*model.Widget, error) {
	var widget model.Widget
	if err := tx.First(&widget, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewValidationError("widget_id", "widget does not exist")
		}
		return nil, fmt.Errorf("failed to look up widget: %w", err)
	}
	return &widget, nil
}

// findForUpdate loads and locks an order row by number.
func (s *orderServiceImpl) findForUpdate(tx *gorm.DB, number string) (*model.Order, error) {
	var order model.Order
	err := lockForUpdate(tx).Where("number = ?", number).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", number, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// findOpenForUpdate is findForUpdate plus the open-state guard shared by
// all item mutations.
func (s *orderServiceImpl) findOpenForUpdate(tx *gorm.DB, number string) (*model.Order, error) {
	order, err := s.findForUpdate(tx, number)
	if err != nil {
		return nil, err
	}
	if order.Completed {
		return nil, fmt.Errorf("order %s: %w", number, model.ErrOrderCompleted)
	}
	return order, nil
}

func (s *orderServiceImpl) findItem(tx *gorm.DB, orderID, itemID uint) (*model.OrderItem, error) {
	var item model.OrderItem
	err := tx.Where("order_id = ?", orderID).First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order item %d: %w", itemID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return &item, nil
}

func (s *orderServiceImpl) getItem(ctx context.Context, id uint) (*model.OrderItem, error) {
	var item model.OrderItem
	err := s.db.WithContext(ctx).
		Preload("Widget.Category").
		Preload("Widget.Features").
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order item %d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return &item, nil
}

// lockWidgets locks the widget rows referenced by the given items before
// the completion check runs, so a concurrent completion cannot validate
// against stale stock.
func (s *orderServiceImpl) lockWidgets(tx *gorm.DB, items []model.OrderItem) (map[uint]*model.Widget, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.WidgetID)
	}
	byID := make(map[uint]*model.Widget, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	var widgets []model.Widget
	if err := lockForUpdate(tx).Where("id IN ?", ids).Find(&widgets).Error; err != nil {
		return nil, fmt.Errorf("failed to lock widgets: %w", err)
	}
	for i := range widgets {
		byID[widgets[i].ID] = &widgets[i]
	}
	return byID, nil
}

// uniqueNumber draws generated numbers until one is free in the store.
func (s *orderServiceImpl) uniqueNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := s.numbers.Generate()
		var count int64
		if err := tx.Model(&model.Order{}).Where("number = ?", number).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check order number: %w", err)
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", maxNumberAttempts)
}
