package orders

import (
	"context"
	"errors"
	"strings"

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

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get order")
	}
	return &order, nil
}

func (r *Repository) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders by email")
	}
	return rows, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int, search string) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("customer_name LIKE ? OR email LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, nil
}

// LatestShipments returns the newest shipment per order for the given ids.
func (r *Repository) LatestShipments(ctx context.Context, orderIDs []int) (map[int]models.Shipment, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shipments")
	}

	latest := make(map[int]models.Shipment, len(orderIDs))
	for _, shipment := range rows {
		latest[shipment.OrderID] = shipment
	}
	return latest, nil
}
