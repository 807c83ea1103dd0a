package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"widget-shop/internal/infrastructure"
	"widget-shop/internal/model"
)

// newTestDB opens a fresh in-memory database with the full schema. A
// single connection keeps every query on the same in-memory instance.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, infrastructure.MigrateAllSchemas(db))
	return db
}

// fixture mirrors the sample catalog: two categories, five features, three
// widgets with unlimited stock.
type fixture struct {
	cat1, cat2                    model.Category
	small, red, big, blue, fluffy model.Feature
	widget1, widget2, widget3     model.Widget
}

func seedFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	fx := &fixture{
		cat1: model.Category{Name: "cat1", Label: "category1"},
		cat2: model.Category{Name: "cat2", Label: "category2"},
	}
	require.NoError(t, db.Create(&fx.cat1).Error)
	require.NoError(t, db.Create(&fx.cat2).Error)

	fx.small = model.Feature{Label: "Small", CategoryID: fx.cat1.ID}
	fx.red = model.Feature{Label: "Red", CategoryID: fx.cat1.ID}
	fx.big = model.Feature{Label: "Big", CategoryID: fx.cat2.ID}
	fx.blue = model.Feature{Label: "Blue", CategoryID: fx.cat2.ID}
	fx.fluffy = model.Feature{Label: "Fluffy", CategoryID: fx.cat2.ID}
	for _, feature := range []*model.Feature{&fx.small, &fx.red, &fx.big, &fx.blue, &fx.fluffy} {
		require.NoError(t, db.Create(feature).Error)
	}

	fx.widget1 = model.Widget{
		CategoryID:  fx.cat1.ID,
		Price:       decimal.NewFromInt(10),
		Name:        "widget1",
		Description: "first widget",
		Features:    []model.Feature{fx.small, fx.red},
	}
	fx.widget2 = model.Widget{
		CategoryID:  fx.cat2.ID,
		Price:       decimal.NewFromInt(20),
		Name:        "widget2",
		Description: "second widget",
		Features:    []model.Feature{fx.big, fx.blue},
	}
	fx.widget3 = model.Widget{
		CategoryID:  fx.cat2.ID,
		Price:       decimal.NewFromInt(30),
		Name:        "widget3",
		Description: "third widget",
		Features:    []model.Feature{fx.big, fx.fluffy},
	}
	for _, widget := range []*model.Widget{&fx.widget1, &fx.widget2, &fx.widget3} {
		require.NoError(t, db.Create(widget).Error)
	}
	return fx
}

// createBoundedWidget inserts a widget with a stock ceiling.
func createBoundedWidget(t *testing.T, db *gorm.DB, categoryID uint, name string, quantity int64) model.Widget {
	t.Helper()
	widget := model.Widget{
		CategoryID: categoryID,
		Price:      decimal.NewFromInt(30),
		Name:       name,
		Quantity:   &quantity,
	}
	require.NoError(t, db.Create(&widget).Error)
	return widget
}

// reloadWidget fetches a widget's current row.
func reloadWidget(t *testing.T, db *gorm.DB, id uint) model.Widget {
	t.Helper()
	var widget model.Widget
	require.NoError(t, db.First(&widget, id).Error)
	return widget
}

func newOrders(db *gorm.DB) OrderService {
	return NewOrderService(db, NewStockLedger(), NewOrderNumberGenerator())
}
