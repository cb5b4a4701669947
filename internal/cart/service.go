package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

// Store is the persistence surface for carts.
type Store interface {
	Get(ctx context.Context, userID int) (*models.Cart, error)
	Upsert(ctx context.Context, userID int, items string) (*models.Cart, error)
	Clear(ctx context.Context, userID int) error
}

// Service keeps one JSON items blob per user. The blob is opaque to the
// backend beyond being valid JSON; the storefront owns its shape.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) Get(ctx context.Context, userID int) (json.RawMessage, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.Items == "" {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(cart.Items), nil
}

func (s *Service) Put(ctx context.Context, userID int, items json.RawMessage) (json.RawMessage, error) {
	if len(items) == 0 {
		items = json.RawMessage("[]")
	}
	if !json.Valid(items) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items must be valid JSON")
	}
	cart, err := s.store.Upsert(ctx, userID, string(items))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(cart.Items), nil
}

func (s *Service) Clear(ctx context.Context, userID int) error {
	return s.store.Clear(ctx, userID)
}
