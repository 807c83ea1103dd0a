package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedSentinel is the wire form of unbounded stock.
const UnlimitedSentinel = "unlimited"

// Widget is a catalog item. A nil Quantity means the widget has no stock
// ceiling; deductions never apply to it.
type Widget struct {
	ID          uint            `gorm:"primaryKey"`
	CategoryID  uint            `gorm:"not null;index"`
	Category    Category        `gorm:"constraint:OnDelete:CASCADE"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Name        string          `gorm:"size:100"`
	Description string          `gorm:"size:1000"`
	Quantity    *int64
	Features    []Feature `gorm:"many2many:widget_features"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Unlimited reports whether the widget has no stock ceiling.
func (w *Widget) Unlimited() bool {
	return w.Quantity == nil
}

// Available returns the widget's stock state in wire form.
func (w *Widget) Available() StockLevel {
	if w.Quantity == nil {
		return StockLevel{Unlimited: true}
	}
	return StockLevel{Count: *w.Quantity}
}

// StockLevel is a bounded count or the unlimited sentinel. On the wire it
// is either a non-negative integer or the string "unlimited".
type StockLevel struct {
	Count     int64
	Unlimited bool
}

// MarshalJSON implements json.Marshaler.
func (s StockLevel) MarshalJSON() ([]byte, error) {
	if s.Unlimited {
		return json.Marshal(UnlimitedSentinel)
	}
	return json.Marshal(s.Count)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StockLevel) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			return NewValidationError("quantity", "must not be negative")
		}
		*s = StockLevel{Count: n}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil && str == UnlimitedSentinel {
		*s = StockLevel{Unlimited: true}
		return nil
	}
	return NewValidationError("quantity", `must be a non-negative integer or "unlimited"`)
}

// WidgetRequest is the creation payload for a widget. Category and
// features are accepted by id; an absent quantity means unlimited stock.
type WidgetRequest struct {
	Category    uint        `json:"category" binding:"required"`
	Price       string      `json:"price" binding:"required"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Quantity    *StockLevel `json:"quantity"`
	Features    []uint      `json:"features"`
}

// WidgetUpdateRequest is the partial-update payload for a widget. Only
// provided fields change.
type WidgetUpdateRequest struct {
	Category    *uint       `json:"category"`
	Price       *string     `json:"price"`
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Quantity    *StockLevel `json:"quantity"`
	Features    *[]uint     `json:"features"`
}

// WidgetResponse is the read representation: category and features are
// shown by display name, price as a fixed two-decimal string.
type WidgetResponse struct {
	ID                uint       `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	Features          []string   `json:"features"`
	Price             string     `json:"price"`
	AvailableQuantity StockLevel `json:"available_quantity"`
}

// ToWire maps a widget (with category and features loaded) to its read
// representation.
func (w *Widget) ToWire() WidgetResponse {
	features := make([]string, 0, len(w.Features))
	for _, f := range w.Features {
		features = append(features, f.Label)
	}
	return WidgetResponse{
		ID:                w.ID,
		Name:              w.Name,
		Description:       w.Description,
		Category:          w.Category.Name,
		Features:          features,
		Price:             w.Price.StringFixed(2),
		AvailableQuantity: w.Available(),
	}
}
