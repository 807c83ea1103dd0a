package service

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"widget-shop/internal/model"
)

// StockLedger owns widget availability semantics: the unlimited sentinel,
// the two sufficiency policies, and the deduction applied at order
// completion.
//
// The two policies are intentionally different and must stay that way:
// adding an item accepts a request for exactly the available amount, while
// completing an order requires availability to strictly exceed each line's
// quantity. Both are preserved from the system this replaces.
type StockLedger struct{}

// NewStockLedger creates a stock ledger.
func NewStockLedger() StockLedger {
	return StockLedger{}
}

// Available returns the widget's current stock state.
func (StockLedger) Available(w *model.Widget) model.StockLevel {
	return w.Available()
}

// SufficientForAdd is the add-time policy: a quantity is acceptable unless
// it exceeds bounded stock. Requesting exactly the available amount passes.
func (StockLedger) SufficientForAdd(w *model.Widget, quantity int64) bool {
	if w.Unlimited() {
		return true
	}
	return quantity <= *w.Quantity
}

// SufficientForCompletion is the completion-time policy: bounded stock
// must strictly exceed the requested quantity. Stock exactly equal to the
// request counts as insufficient.
func (StockLedger) SufficientForCompletion(w *model.Widget, quantity int64) bool {
	if w.Unlimited() {
		return true
	}
	return *w.Quantity > quantity
}

// Deduct re-checks the completion policy and decrements the widget's
// stock, updating both the row and the in-memory widget. Unlimited stock
// is a successful no-op. Must only be called inside the order-completion
// transaction, with the widget row already locked.
func (s StockLedger) Deduct(tx *gorm.DB, w *model.Widget, quantity int64) error {
	if w.Unlimited() {
		return nil
	}
	if !s.SufficientForCompletion(w, quantity) {
		return fmt.Errorf("widget %d: %w", w.ID, model.ErrInsufficientStock)
	}
	remaining := *w.Quantity - quantity
	if err := tx.Model(&model.Widget{}).Where("id = ?", w.ID).
		Update("quantity", remaining).Error; err != nil {
		return fmt.Errorf("failed to deduct stock for widget %d: %w", w.ID, err)
	}
	*w.Quantity = remaining
	return nil
}

// lockForUpdate adds SELECT ... FOR UPDATE to a query so concurrent
// transactions serialize on the selected rows. sqlite has no row locks
// and a single writer, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
