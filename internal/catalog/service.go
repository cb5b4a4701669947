package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// Store is the persistence surface for products, variants, and reviews.
type Store interface {
	ListProducts(ctx context.Context, category, subcategory string) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int) error
	ListVariants(ctx context.Context, productID int) ([]models.Variant, error)
	GetVariant(ctx context.Context, id int) (*models.Variant, error)
	CreateVariant(ctx context.Context, variant *models.Variant, images []models.VariantImage, sizes []models.VariantSize) error
	ListVariantImages(ctx context.Context, variantIDs []int) ([]models.VariantImage, error)
	ListVariantSizes(ctx context.Context, variantIDs []int) ([]models.VariantSize, error)
	CreateReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, productID int) ([]models.Review, error)
}

type Service struct {
	store  Store
	logger *logger.Logger
}

func NewService(store Store, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: store, logger: logg}, nil
}

// VariantColor is the color descriptor order normalization stamps onto line
// items.
type VariantColor struct {
	Name string  `json:"name"`
	Hex  *string `json:"hex"`
}

// VariantView is a variant with its images and per-size stock inlined.
type VariantView struct {
	ID        int                  `json:"id"`
	ProductID int                  `json:"product_id"`
	Color     string               `json:"color"`
	ColorCode *string              `json:"color_code"`
	Images    []string             `json:"images"`
	Sizes     []models.VariantSize `json:"sizes"`
}

// ProductView is a product with its variants attached.
type ProductView struct {
	models.Product
	Variants []VariantView `json:"variants"`
}

func (s *Service) ListProducts(ctx context.Context, category, subcategory string) ([]models.Product, error) {
	return s.store.ListProducts(ctx, strings.TrimSpace(category), strings.TrimSpace(subcategory))
}

func (s *Service) GetProduct(ctx context.Context, id int) (*ProductView, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	variants, err := s.store.ListVariants(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}

	images, err := s.store.ListVariantImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	sizes, err := s.store.ListVariantSizes(ctx, ids)
	if err != nil {
		return nil, err
	}

	imagesByVariant := map[int][]string{}
	for _, img := range images {
		imagesByVariant[img.VariantID] = append(imagesByVariant[img.VariantID], img.ImageURL)
	}
	sizesByVariant := map[int][]models.VariantSize{}
	for _, size := range sizes {
		sizesByVariant[size.VariantID] = append(sizesByVariant[size.VariantID], size)
	}

	view := &ProductView{Product: *product, Variants: make([]VariantView, 0, len(variants))}
	for _, v := range variants {
		view.Variants = append(view.Variants, VariantView{
			ID:        v.ID,
			ProductID: v.ProductID,
			Color:     v.Color,
			ColorCode: v.ColorCode,
			Images:    imagesByVariant[v.ID],
			Sizes:     sizesByVariant[v.ID],
		})
	}
	return view, nil
}

// VariantColorByID resolves a variant id to its color descriptor.
func (s *Service) VariantColorByID(ctx context.Context, variantID int) (*VariantColor, error) {
	variant, err := s.store.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return &VariantColor{Name: variant.Color, Hex: variant.ColorCode}, nil
}

type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Subcategory string  `json:"subcategory"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	Colors      *string `json:"colors"`
	AgeGroup    *string `json:"age_group"`
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Category:    strings.TrimSpace(input.Category),
		Subcategory: strings.TrimSpace(input.Subcategory),
		Description: input.Description,
		Price:       input.Price,
		Colors:      input.Colors,
		AgeGroup:    input.AgeGroup,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int, input ProductInput) (*models.Product, error) {
	product := &models.Product{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Category:    strings.TrimSpace(input.Category),
		Subcategory: strings.TrimSpace(input.Subcategory),
		Description: input.Description,
		Price:       input.Price,
		Colors:      input.Colors,
		AgeGroup:    input.AgeGroup,
	}
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	return s.store.DeleteProduct(ctx, id)
}

type VariantSizeInput struct {
	Size  string `json:"size" validate:"required"`
	Stock int    `json:"stock" validate:"min=0"`
}

type VariantInput struct {
	Color     string             `json:"color" validate:"required"`
	ColorCode *string            `json:"color_code"`
	Images    []string           `json:"images"`
	Sizes     []VariantSizeInput `json:"sizes"`
}

func (s *Service) CreateVariant(ctx context.Context, productID int, input VariantInput) (*VariantView, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	variant := &models.Variant{
		ProductID: productID,
		Color:     strings.TrimSpace(input.Color),
		ColorCode: input.ColorCode,
	}

	images := make([]models.VariantImage, 0, len(input.Images))
	for _, url := range input.Images {
		if strings.TrimSpace(url) == "" {
			continue
		}
		images = append(images, models.VariantImage{ImageURL: url})
	}
	sizes := make([]models.VariantSize, 0, len(input.Sizes))
	for _, size := range input.Sizes {
		sizes = append(sizes, models.VariantSize{Size: size.Size, Stock: size.Stock})
	}

	if err := s.store.CreateVariant(ctx, variant, images, sizes); err != nil {
		return nil, err
	}

	view := &VariantView{
		ID:        variant.ID,
		ProductID: variant.ProductID,
		Color:     variant.Color,
		ColorCode: variant.ColorCode,
		Images:    input.Images,
		Sizes:     sizes,
	}
	return view, nil
}

type ReviewInput struct {
	UserName *string `json:"user_name"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Text     *string `json:"text"`
}

func (s *Service) CreateReview(ctx context.Context, productID int, input ReviewInput) (*models.Review, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	review := &models.Review{
		ProductID: productID,
		UserName:  input.UserName,
		Rating:    input.Rating,
		Text:      input.Text,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) ListReviews(ctx context.Context, productID int) ([]models.Review, error) {
	return s.store.ListReviews(ctx, productID)
}
