package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vrukshaservices/vruksha-backend/internal/catalog"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// Store is the persistence surface for orders.
type Store interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
	List(ctx context.Context, limit, offset int, search string) ([]models.Order, error)
	LatestShipments(ctx context.Context, orderIDs []int) (map[int]models.Shipment, error)
}

// ColorResolver resolves a variant id to its color descriptor during line
// item normalization.
type ColorResolver interface {
	VariantColorByID(ctx context.Context, variantID int) (*catalog.VariantColor, error)
}

// CartClearer empties a user's cart after placement. Best-effort; a failure
// never unwinds the order.
type CartClearer interface {
	Clear(ctx context.Context, userID int) error
}

// Notifier is the fire-and-forget admin notification port.
type Notifier interface {
	Notify(ctx context.Context, kind enums.NotificationType, refID *int, title, body string)
}

type Service struct {
	store    Store
	colors   ColorResolver
	cart     CartClearer
	notifier Notifier
	logger   *logger.Logger
}

func NewService(store Store, colors ColorResolver, cart CartClearer, notifier Notifier, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if colors == nil {
		return nil, fmt.Errorf("color resolver is required")
	}
	return &Service{store: store, colors: colors, cart: cart, notifier: notifier, logger: logg}, nil
}

// LineItemInput is one raw order line as the storefront sends it. Color may
// arrive as a variant id, a bare color string, or not at all.
type LineItemInput struct {
	ProductID    int     `json:"product_id" validate:"required,gt=0"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	Size         *string `json:"size"`
	VariantID    *int    `json:"variant_id"`
	VariantColor *string `json:"variant_color"`
}

// lineItem is the normalized persisted shape. SelectedColor is always
// present, possibly null.
type lineItem struct {
	ProductID     int                   `json:"product_id"`
	Name          string                `json:"name"`
	Quantity      int                   `json:"quantity"`
	Price         float64               `json:"price"`
	Size          *string               `json:"size,omitempty"`
	SelectedColor *catalog.VariantColor `json:"selectedColor"`
}

type PlaceOrderInput struct {
	CustomerName  string          `json:"customer_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone" validate:"required"`
	Address       string          `json:"address" validate:"required"`
	TotalAmount   float64         `json:"total_amount" validate:"required,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Items         []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder persists a direct order. Customer identity comes from the
// authenticated user, never from the body.
func (s *Service) PlaceOrder(ctx context.Context, userID int, userName, userEmail string, input PlaceOrderInput) (*models.Order, error) {
	method, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(input.PaymentMethod)))
	if err != nil || method != enums.PaymentMethodUPI {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only UPI payment is accepted")
	}

	items := make([]lineItem, 0, len(input.Items))
	for _, raw := range input.Items {
		items = append(items, lineItem{
			ProductID:     raw.ProductID,
			Name:          raw.Name,
			Quantity:      raw.Quantity,
			Price:         raw.Price,
			Size:          raw.Size,
			SelectedColor: s.resolveColor(ctx, raw),
		})
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order items")
	}

	order := &models.Order{
		CustomerName: userName,
		Email:        userEmail,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		TotalAmount:  input.TotalAmount,
		Items:        string(encoded),
	}
	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}

	if s.cart != nil {
		if err := s.cart.Clear(ctx, userID); err != nil && s.logger != nil {
			s.logger.Warn(s.logger.WithField(ctx, "order_id", order.ID), "order.cart_clear_failed")
		}
	}

	if s.notifier != nil {
		ref := order.ID
		s.notifier.Notify(ctx, enums.NotificationTypeOrder, &ref,
			fmt.Sprintf("New order #%d from %s", order.ID, userName),
			fmt.Sprintf("Order #%d placed by %s (%s) for INR %.2f.", order.ID, userName, userEmail, order.TotalAmount))
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithField(ctx, "order_id", order.ID), "order.placed")
	}
	return order, nil
}

// resolveColor derives the selectedColor descriptor: the variant's color when
// a variant id is given and resolves, else the raw color string, else null.
func (s *Service) resolveColor(ctx context.Context, item LineItemInput) *catalog.VariantColor {
	if item.VariantID != nil && *item.VariantID > 0 {
		if color, err := s.colors.VariantColorByID(ctx, *item.VariantID); err == nil {
			return color
		}
	}
	if item.VariantColor != nil && strings.TrimSpace(*item.VariantColor) != "" {
		return &catalog.VariantColor{Name: strings.TrimSpace(*item.VariantColor)}
	}
	return nil
}

// OrderView is an order with its parsed items and latest shipment.
type OrderView struct {
	ID           int              `json:"id"`
	CustomerName string           `json:"customer_name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Address      string           `json:"address"`
	TotalAmount  float64          `json:"total_amount"`
	Items        json.RawMessage  `json:"items"`
	CreatedAt    string           `json:"created_at"`
	Shipment     *models.Shipment `json:"shipment,omitempty"`
}

func (s *Service) ListForUser(ctx context.Context, email string) ([]OrderView, error) {
	rows, err := s.store.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.attachShipments(ctx, rows)
}

func (s *Service) List(ctx context.Context, limit, offset int, search string) ([]OrderView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.store.List(ctx, limit, offset, search)
	if err != nil {
		return nil, err
	}
	return s.attachShipments(ctx, rows)
}

func (s *Service) attachShipments(ctx context.Context, rows []models.Order) ([]OrderView, error) {
	ids := make([]int, 0, len(rows))
	for _, order := range rows {
		ids = append(ids, order.ID)
	}
	shipments, err := s.store.LatestShipments(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(rows))
	for _, order := range rows {
		view := OrderView{
			ID:           order.ID,
			CustomerName: order.CustomerName,
			Email:        order.Email,
			Phone:        order.Phone,
			Address:      order.Address,
			TotalAmount:  order.TotalAmount,
			Items:        json.RawMessage(order.Items),
			CreatedAt:    order.CreatedAt.UTC().Format(time.RFC3339),
		}
		if shipment, ok := shipments[order.ID]; ok {
			copied := shipment
			view.Shipment = &copied
		}
		views = append(views, view)
	}
	return views, nil
}
