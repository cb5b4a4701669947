package wishlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

// ProfileStore is the slice of the users repository the wishlist needs. The
// wishlist is a JSON array of product ids on the user profile row.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	SetWishlist(ctx context.Context, userID int, wishlist *string) error
}

type Service struct {
	profiles ProfileStore
}

func NewService(profiles ProfileStore) (*Service, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	return &Service{profiles: profiles}, nil
}

func (s *Service) Get(ctx context.Context, userID int) ([]int, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return decodeWishlist(profile), nil
}

func (s *Service) Add(ctx context.Context, userID, productID int) ([]int, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := decodeWishlist(profile)
	for _, id := range ids {
		if id == productID {
			return ids, nil
		}
	}
	ids = append(ids, productID)
	return ids, s.save(ctx, userID, ids)
}

func (s *Service) Remove(ctx context.Context, userID, productID int) ([]int, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := decodeWishlist(profile)
	kept := ids[:0]
	for _, id := range ids {
		if id != productID {
			kept = append(kept, id)
		}
	}
	return kept, s.save(ctx, userID, kept)
}

func (s *Service) save(ctx context.Context, userID int, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode wishlist")
	}
	blob := string(encoded)
	return s.profiles.SetWishlist(ctx, userID, &blob)
}

func decodeWishlist(profile *models.UserProfile) []int {
	if profile == nil || profile.Wishlist == nil || *profile.Wishlist == "" {
		return []int{}
	}
	var ids []int
	if err := json.Unmarshal([]byte(*profile.Wishlist), &ids); err != nil {
		// A corrupt blob resets rather than wedging the endpoint.
		return []int{}
	}
	return ids
}
