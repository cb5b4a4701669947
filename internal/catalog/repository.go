package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListProducts(ctx context.Context, category, subcategory string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Order("id")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if subcategory != "" {
		query = query.Where("subcategory = ?", subcategory)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return rows, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get product")
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"category":    product.Category,
			"subcategory": product.Subcategory,
			"description": product.Description,
			"price":       product.Price,
			"colors":      product.Colors,
			"age_group":   product.AgeGroup,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (r *Repository) ListVariants(ctx context.Context, productID int) ([]models.Variant, error) {
	var rows []models.Variant
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list variants")
	}
	return rows, nil
}

func (r *Repository) GetVariant(ctx context.Context, id int) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get variant")
	}
	return &variant, nil
}

func (r *Repository) CreateVariant(ctx context.Context, variant *models.Variant, images []models.VariantImage, sizes []models.VariantSize) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(variant).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create variant")
		}
		for i := range images {
			images[i].VariantID = variant.ID
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create variant images")
			}
		}
		for i := range sizes {
			sizes[i].VariantID = variant.ID
		}
		if len(sizes) > 0 {
			if err := tx.Create(&sizes).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create variant sizes")
			}
		}
		return nil
	})
}

func (r *Repository) ListVariantImages(ctx context.Context, variantIDs []int) ([]models.VariantImage, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var rows []models.VariantImage
	if err := r.db.WithContext(ctx).Where("variant_id IN ?", variantIDs).Order("id").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list variant images")
	}
	return rows, nil
}

func (r *Repository) ListVariantSizes(ctx context.Context, variantIDs []int) ([]models.VariantSize, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var rows []models.VariantSize
	if err := r.db.WithContext(ctx).Where("variant_id IN ?", variantIDs).Order("id").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list variant sizes")
	}
	return rows, nil
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return nil
}

func (r *Repository) ListReviews(ctx context.Context, productID int) ([]models.Review, error) {
	var rows []models.Review
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return rows, nil
}
