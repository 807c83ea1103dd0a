package infrastructure

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"widget-shop/internal/model"
)

// SeedDataManager handles sample catalog initialization for development
// environments.
type SeedDataManager struct {
	db *gorm.DB
}

// NewSeedDataManager creates a new seed data manager
func NewSeedDataManager(db *gorm.DB) *SeedDataManager {
	return &SeedDataManager{db: db}
}

// SeedCatalog populates sample categories, features and widgets when the
// catalog is empty. Existing data is never touched.
func (s *SeedDataManager) SeedCatalog() error {
	var count int64
	if err := s.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing categories: %w", err)
	}
	if count > 0 {
		log.Println("Sample catalog already exists, skipping creation")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		cat1 := model.Category{Name: "cat1", Label: "category1"}
		cat2 := model.Category{Name: "cat2", Label: "category2"}
		for _, category := range []*model.Category{&cat1, &cat2} {
			if err := tx.Create(category).Error; err != nil {
				return fmt.Errorf("failed to create sample category: %w", err)
			}
		}

		small := model.Feature{Label: "Small", CategoryID: cat1.ID}
		red := model.Feature{Label: "Red", CategoryID: cat1.ID}
		big := model.Feature{Label: "Big", CategoryID: cat2.ID}
		blue := model.Feature{Label: "Blue", CategoryID: cat2.ID}
		fluffy := model.Feature{Label: "Fluffy", CategoryID: cat2.ID}
		for _, feature := range []*model.Feature{&small, &red, &big, &blue, &fluffy} {
			if err := tx.Create(feature).Error; err != nil {
				return fmt.Errorf("failed to create sample feature: %w", err)
			}
		}

		limited := int64(25)
		sampleWidgets := []model.Widget{
			{
				CategoryID:  cat1.ID,
				Price:       decimal.NewFromInt(10),
				Name:        "widget1",
				Description: "first widget",
				Features:    []model.Feature{small, red},
			},
			{
				CategoryID:  cat2.ID,
				Price:       decimal.NewFromInt(20),
				Name:        "widget2",
				Description: "second widget",
				Features:    []model.Feature{big, blue},
			},
			{
				CategoryID:  cat2.ID,
				Price:       decimal.NewFromInt(30),
				Name:        "widget3",
				Description: "third widget",
				Quantity:    &limited,
				Features:    []model.Feature{big, fluffy},
			},
		}
		for i := range sampleWidgets {
			if err := tx.Create(&sampleWidgets[i]).Error; err != nil {
				return fmt.Errorf("failed to create sample widget: %w", err)
			}
		}

		log.Printf("Created %d sample widgets", len(sampleWidgets))
		return nil
	})
}
