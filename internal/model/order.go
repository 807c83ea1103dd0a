package model

import "time"

// OrderNumberLength is the length of the external order handle: lowercase
// hex, unique across all orders.
const OrderNumberLength = 10

// Order is the aggregate root for a set of line items. It is created Open
// (Completed == false) and mutable; completion flips the flag exactly once
// and freezes the items. Deleting an order cascades to its items.
type Order struct {
	ID        uint        `gorm:"primaryKey"`
	Number    string      `gorm:"size:10;not null;uniqueIndex"`
	Completed bool        `gorm:"not null;default:false"`
	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is one line of an order: a widget reference and a requested
// quantity. It holds only its order's id, never the aggregate itself.
type OrderItem struct {
	ID       uint `gorm:"primaryKey"`
	OrderID  uint `gorm:"not null;index"`
	WidgetID uint `gorm:"not null;index"`
	Widget   Widget
	Quantity int64 `gorm:"not null"`
}

// OrderCreateRequest creates an order, optionally with one initial item.
// Both fields absent creates an empty order.
type OrderCreateRequest struct {
	WidgetID uint  `json:"widget_id"`
	Quantity int64 `json:"quantity"`
}

// OrderItemRequest adds a line item to an existing order.
type OrderItemRequest struct {
	WidgetID uint  `json:"widget_id" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// OrderItemUpdateRequest replaces a line item's quantity.
type OrderItemUpdateRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// OrderItemResponse is the read representation of a line item. The widget
// is rendered in full; order_quantity mirrors quantity for clients reading
// the item embedded in a widget listing.
type OrderItemResponse struct {
	ID            uint           `json:"id"`
	Order         uint           `json:"order"`
	Quantity      int64          `json:"quantity"`
	OrderQuantity int64          `json:"order_quantity"`
	Widget        WidgetResponse `json:"widget"`
}

// OrderResponse is the read representation of an order.
type OrderResponse struct {
	ID        uint                `json:"id"`
	Number    string              `json:"number"`
	Completed bool                `json:"completed"`
	Items     []OrderItemResponse `json:"items"`
}

// ToWire maps a line item (with its widget loaded) to its read
// representation.
func (i *OrderItem) ToWire() OrderItemResponse {
	return OrderItemResponse{
		ID:            i.ID,
		Order:         i.OrderID,
		Quantity:      i.Quantity,
		OrderQuantity: i.Quantity,
		Widget:        i.Widget.ToWire(),
	}
}

// ToWire maps an order (with items and their widgets loaded) to its read
// representation.
func (o *Order) ToWire() OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for idx := range o.Items {
		items = append(items, o.Items[idx].ToWire())
	}
	return OrderResponse{
		ID:        o.ID,
		Number:    o.Number,
		Completed: o.Completed,
		Items:     items,
	}
}
