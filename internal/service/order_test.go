package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-shop/internal/model"
)

var orderNumberPattern = regexp.MustCompile(`^[0-9a-f]{10}$`)

func TestCreateEmptyOrder(t *testing.T) {
	db := newTestDB(t)
	seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{})
	require.NoError(t, err)
	assert.False(t, order.Completed)
	assert.Empty(t, order.Items)
	assert.Regexp(t, orderNumberPattern, order.Number)
}

func TestCreateOrderWithInitialItem(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 10})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, fx.widget1.ID, order.Items[0].WidgetID)
	assert.Equal(t, int64(10), order.Items[0].Quantity)

	// the add-time check never touches stock
	assert.Nil(t, reloadWidget(t, db, fx.widget1.ID).Quantity)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	bounded := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 5)
	_, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: bounded.ID, Quantity: 10})
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	// no partial persistence: the order must not exist either
	var count int64
	require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderNumbersAreUnique(t *testing.T) {
	db := newTestDB(t)
	seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		order, err := orders.Create(ctx, &model.OrderCreateRequest{})
		require.NoError(t, err)
		assert.Regexp(t, orderNumberPattern, order.Number)
		assert.False(t, seen[order.Number])
		seen[order.Number] = true
	}
}

// stubGenerator replays a fixed sequence of numbers.
type stubGenerator struct {
	numbers []string
	next    int
}

func (g *stubGenerator) Generate() string {
	n := g.numbers[g.next]
	if g.next < len(g.numbers)-1 {
		g.next++
	}
	return n
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	db := newTestDB(t)
	seedFixture(t, db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Order{Number: "aaaaaaaaaa"}).Error)

	orders := NewOrderService(db, NewStockLedger(), &stubGenerator{
		numbers: []string{"aaaaaaaaaa", "bbbbbbbbbb"},
	})
	order, err := orders.Create(ctx, &model.OrderCreateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbbbb", order.Number)
}

func TestAddItemValidation(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{})
	require.NoError(t, err)

	var validation *model.ValidationError
	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: fx.widget1.ID, Quantity: 0})
	require.ErrorAs(t, err, &validation)

	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: 9999, Quantity: 1})
	require.ErrorAs(t, err, &validation)
}

func TestAddItemExactStockAllowed(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	bounded := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 5)
	order, err := orders.Create(ctx, &model.OrderCreateRequest{})
	require.NoError(t, err)

	// the add-time policy accepts a request for exactly the available amount
	item, err := orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: bounded.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.Quantity)

	// the completion-time policy does not
	_, err = orders.Complete(ctx, order.Number)
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	reloaded, err := orders.Get(ctx, order.Number)
	require.NoError(t, err)
	assert.False(t, reloaded.Completed)
	assert.Equal(t, int64(5), *reloadWidget(t, db, bounded.ID).Quantity)
}

func TestUpdateItemQuantity(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 5})
	require.NoError(t, err)

	item, err := orders.UpdateItem(ctx, order.Number, order.Items[0].ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), item.Quantity)
}

func TestUpdateItemInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	bounded := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 5)
	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: bounded.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = orders.UpdateItem(ctx, order.Number, order.Items[0].ID, 6)
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	reloaded, err := orders.Get(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reloaded.Items[0].Quantity)
}

func TestCompleteDeductsStock(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	bounded := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 6)
	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: bounded.ID, Quantity: 5})
	require.NoError(t, err)

	completed, err := orders.Complete(ctx, order.Number)
	require.NoError(t, err)
	assert.True(t, completed.Completed)

	assert.Nil(t, reloadWidget(t, db, fx.widget1.ID).Quantity)
	assert.Equal(t, int64(1), *reloadWidget(t, db, bounded.ID).Quantity)
}

func TestCompleteTwiceFails(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	bounded := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 6)
	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: bounded.ID, Quantity: 5})
	require.NoError(t, err)

	_, err = orders.Complete(ctx, order.Number)
	require.NoError(t, err)

	_, err = orders.Complete(ctx, order.Number)
	require.ErrorIs(t, err, model.ErrOrderCompleted)

	// the failed second completion must not deduct again
	assert.Equal(t, int64(1), *reloadWidget(t, db, bounded.ID).Quantity)
}

func TestCompleteAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	sufficient := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 10)
	insufficient := createBoundedWidget(t, db, fx.cat2.ID, "widget5", 4)

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: sufficient.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: insufficient.ID, Quantity: 4})
	require.NoError(t, err)

	_, err = orders.Complete(ctx, order.Number)
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	// the sufficient widget must not have been touched
	assert.Equal(t, int64(10), *reloadWidget(t, db, sufficient.ID).Quantity)
	assert.Equal(t, int64(4), *reloadWidget(t, db, insufficient.ID).Quantity)

	reloaded, err := orders.Get(ctx, order.Number)
	require.NoError(t, err)
	assert.False(t, reloaded.Completed)
}

func TestUnlimitedStockNeverBlocks(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 1_000_000})
	require.NoError(t, err)

	completed, err := orders.Complete(ctx, order.Number)
	require.NoError(t, err)
	assert.True(t, completed.Completed)
	assert.Nil(t, reloadWidget(t, db, fx.widget1.ID).Quantity)
}

func TestCompletedOrderIsImmutable(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := order.Items[0].ID

	_, err = orders.Complete(ctx, order.Number)
	require.NoError(t, err)

	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: fx.widget2.ID, Quantity: 1})
	require.ErrorIs(t, err, model.ErrOrderCompleted)

	_, err = orders.UpdateItem(ctx, order.Number, itemID, 5)
	require.ErrorIs(t, err, model.ErrOrderCompleted)

	err = orders.RemoveItem(ctx, order.Number, itemID)
	require.ErrorIs(t, err, model.ErrOrderCompleted)
}

func TestRemoveItemKeepsOrder(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: fx.widget2.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, orders.RemoveItem(ctx, order.Number, order.Items[0].ID))

	reloaded, err := orders.Get(ctx, order.Number)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, fx.widget2.ID, reloaded.Items[0].WidgetID)
}

func TestRemoveLastItemDeletesOrder(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, orders.RemoveItem(ctx, order.Number, order.Items[0].ID))

	_, err = orders.Get(ctx, order.Number)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteOrderCascades(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: fx.widget1.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = orders.AddItem(ctx, order.Number, &model.OrderItemRequest{WidgetID: fx.widget3.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, orders.Delete(ctx, order.Number))

	_, err = orders.Get(ctx, order.Number)
	require.ErrorIs(t, err, model.ErrNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestDeleteCompletedOrderDoesNotRestoreStock(t *testing.T) {
	db := newTestDB(t)
	fx := seedFixture(t, db)
	orders := newOrders(db)
	ctx := context.Background()

	bounded := createBoundedWidget(t, db, fx.cat2.ID, "widget4", 6)
	order, err := orders.Create(ctx, &model.OrderCreateRequest{WidgetID: bounded.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = orders.Complete(ctx, order.Number)
	require.NoError(t, err)

	require.NoError(t, orders.Delete(ctx, order.Number))

	assert.Equal(t, int64(1), *reloadWidget(t, db, bounded.ID).Quantity)
}

func TestGetUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	orders := newOrders(db)

	_, err := orders.Get(context.Background(), "ffffffffff")
	require.ErrorIs(t, err, model.ErrNotFound)
}
