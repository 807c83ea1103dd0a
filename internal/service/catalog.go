package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"widget-shop/internal/model"
)

// CatalogService manages categories, features and widgets. It enforces the
// catalog-level invariant that a widget's features all belong to the
// widget's category.
type CatalogService interface {
	CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateFeature(ctx context.Context, req *model.FeatureRequest) (*model.Feature, error)
	GetFeature(ctx context.Context, id uint) (*model.Feature, error)
	ListFeatures(ctx context.Context) ([]model.Feature, error)

	CreateWidget(ctx context.Context, req *model.WidgetRequest) (*model.Widget, error)
	GetWidget(ctx context.Context, id uint) (*model.Widget, error)
	ListWidgets(ctx context.Context, filters WidgetFilters) ([]model.Widget, error)
	UpdateWidget(ctx context.Context, id uint, req *model.WidgetUpdateRequest) (*model.Widget, error)
}

// WidgetFilters narrows a widget listing. Feature labels are matched as
// substrings and OR-combined.
type WidgetFilters struct {
	CategoryID uint
	Features   []string
}

type catalogServiceImpl struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(db *gorm.DB) CatalogService {
	return &catalogServiceImpl{db: db}
}

// CreateCategory creates a new category.
func (s *catalogServiceImpl) CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	category := &model.Category{Name: req.Name, Label: req.Label}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// GetCategory fetches a category with its features.
func (s *catalogServiceImpl) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).Preload("Features").First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name.
func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateFeature creates a feature under an existing category.
func (s *catalogServiceImpl) CreateFeature(ctx context.Context, req *model.FeatureRequest) (*model.Feature, error) {
	var category model.Category
	err := s.db.WithContext(ctx).First(&category, req.Category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewValidationError("category", "category does not exist")
		}
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	feature := &model.Feature{Label: req.Label, CategoryID: category.ID}
	if err := s.db.WithContext(ctx).Create(feature).Error; err != nil {
		return nil, fmt.Errorf("failed to create feature: %w", err)
	}
	return feature, nil
}

// GetFeature fetches a feature by id.
func (s *catalogServiceImpl) GetFeature(ctx context.Context, id uint) (*model.Feature, error) {
	var feature model.Feature
	err := s.db.WithContext(ctx).First(&feature, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feature %d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get feature: %w", err)
	}
	return &feature, nil
}

// ListFeatures returns all features ordered by label.
func (s *catalogServiceImpl) ListFeatures(ctx context.Context) ([]model.Feature, error) {
	var features []model.Feature
	if err := s.db.WithContext(ctx).Order("label").Find(&features).Error; err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	return features, nil
}

// CreateWidget creates a widget after validating its price, category and
// feature set. Nothing is persisted when validation fails.
func (s *catalogServiceImpl) CreateWidget(ctx context.Context, req *model.WidgetRequest) (*model.Widget, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	var widget *model.Widget
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, features, err := s.resolveCategoryAndFeatures(tx, req.Category, req.Features)
		if err != nil {
			return err
		}
		widget = &model.Widget{
			CategoryID:  category.ID,
			Price:       price,
			Name:        req.Name,
			Description: req.Description,
			Features:    features,
		}
		if req.Quantity != nil && !req.Quantity.Unlimited {
			quantity := req.Quantity.Count
			widget.Quantity = &quantity
		}
		if err := tx.Create(widget).Error; err != nil {
			return fmt.Errorf("failed to create widget: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWidget(ctx, widget.ID)
}

// GetWidget fetches a widget with its category and features.
func (s *catalogServiceImpl) GetWidget(ctx context.Context, id uint) (*model.Widget, error) {
	var widget model.Widget
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Features").
		First(&widget, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("widget %d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get widget: %w", err)
	}
	return &widget, nil
}

// ListWidgets returns widgets matching the filters, ordered by category
// name. Feature labels are substring-matched and OR-combined.
func (s *catalogServiceImpl) ListWidgets(ctx context.Context, filters WidgetFilters) ([]model.Widget, error) {
	query := s.db.WithContext(ctx).Model(&model.Widget{}).
		Joins("JOIN categories ON categories.id = widgets.category_id").
		Order("categories.name").
		Order("widgets.id")

	if filters.CategoryID != 0 {
		query = query.Where("widgets.category_id = ?", filters.CategoryID)
	}
	if len(filters.Features) > 0 {
		labels := s.db.Model(&model.Feature{})
		for _, label := range filters.Features {
			labels = labels.Or("features.label LIKE ?", "%"+label+"%")
		}
		matching := s.db.Model(&model.Feature{}).
			Select("widget_features.widget_id").
			Joins("JOIN widget_features ON widget_features.feature_id = features.id").
			Where(labels)
		query = query.Where("widgets.id IN (?)", matching)
	}

	var widgets []model.Widget
	err := query.Preload("Category").Preload("Features").Find(&widgets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list widgets: %w", err)
	}
	return widgets, nil
}

// UpdateWidget applies a partial update, re-validating the feature set
// against the (possibly changed) category. Nothing is persisted when
// validation fails.
func (s *catalogServiceImpl) UpdateWidget(ctx context.Context, id uint, req *model.WidgetUpdateRequest) (*model.Widget, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var widget model.Widget
		err := lockForUpdate(tx).Preload("Features").First(&widget, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("widget %d: %w", id, model.ErrNotFound)
			}
			return fmt.Errorf("failed to get widget: %w", err)
		}

		if req.Category != nil {
			widget.CategoryID = *req.Category
		}
		if req.Price != nil {
			price, err := parsePrice(*req.Price)
			if err != nil {
				return err
			}
			widget.Price = price
		}
		if req.Name != nil {
			widget.Name = *req.Name
		}
		if req.Description != nil {
			widget.Description = *req.Description
		}
		if req.Quantity != nil {
			if req.Quantity.Unlimited {
				widget.Quantity = nil
			} else {
				quantity := req.Quantity.Count
				widget.Quantity = &quantity
			}
		}

		featureIDs := make([]uint, 0, len(widget.Features))
		for _, f := range widget.Features {
			featureIDs = append(featureIDs, f.ID)
		}
		if req.Features != nil {
			featureIDs = *req.Features
		}
		_, features, err := s.resolveCategoryAndFeatures(tx, widget.CategoryID, featureIDs)
		if err != nil {
			return err
		}

		if err := tx.Model(&widget).Updates(map[string]any{
			"category_id": widget.CategoryID,
			"price":       widget.Price,
			"name":        widget.Name,
			"description": widget.Description,
			"quantity":    widget.Quantity,
		}).Error; err != nil {
			return fmt.Errorf("failed to update widget: %w", err)
		}
		if err := tx.Model(&widget).Association("Features").Replace(features); err != nil {
			return fmt.Errorf("failed to update widget features: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWidget(ctx, id)
}

// resolveCategoryAndFeatures loads the category and feature rows for a
// widget mutation and enforces the feature/category invariant.
func (s *catalogServiceImpl) resolveCategoryAndFeatures(tx *gorm.DB, categoryID uint, featureIDs []uint) (*model.Category, []model.Feature, error) {
	var category model.Category
	err := tx.First(&category, categoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, model.NewValidationError("category", "category does not exist")
		}
		return nil, nil, fmt.Errorf("failed to look up category: %w", err)
	}

	features := make([]model.Feature, 0, len(featureIDs))
	if len(featureIDs) > 0 {
		if err := tx.Where("id IN ?", featureIDs).Find(&features).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to look up features: %w", err)
		}
		if len(features) != len(featureIDs) {
			return nil, nil, model.NewValidationError("features", "feature does not exist")
		}
		for _, feature := range features {
			if feature.CategoryID != category.ID {
				return nil, nil, model.NewValidationError("features", "features must all apply to chosen category")
			}
		}
	}
	return &category, features, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, model.NewValidationError("price", "must be a decimal number")
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, model.NewValidationError("price", "must be greater than zero")
	}
	return price, nil
}
