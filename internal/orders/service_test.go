package orders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vrukshaservices/vruksha-backend/internal/catalog"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	"github.com/vrukshaservices/vruksha-backend/pkg/enums"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

type stubStore struct {
	created *models.Order
	byEmail []models.Order
	listed  []models.Order
	shipped map[int]models.Shipment
	nextID  int
}

func (s *stubStore) Create(_ context.Context, order *models.Order) error {
	s.nextID++
	order.ID = s.nextID
	s.created = order
	return nil
}

func (s *stubStore) GetByID(_ context.Context, id int) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubStore) ListByEmail(_ context.Context, _ string) ([]models.Order, error) {
	return s.byEmail, nil
}

func (s *stubStore) List(_ context.Context, _, _ int, _ string) ([]models.Order, error) {
	return s.listed, nil
}

func (s *stubStore) LatestShipments(_ context.Context, _ []int) (map[int]models.Shipment, error) {
	return s.shipped, nil
}

type stubColors struct {
	colors map[int]catalog.VariantColor
}

func (s *stubColors) VariantColorByID(_ context.Context, variantID int) (*catalog.VariantColor, error) {
	if color, ok := s.colors[variantID]; ok {
		copied := color
		return &copied, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
}

type stubCart struct {
	cleared []int
}

func (s *stubCart) Clear(_ context.Context, userID int) error {
	s.cleared = append(s.cleared, userID)
	return nil
}

type stubNotifier struct {
	kinds []enums.NotificationType
}

func (s *stubNotifier) Notify(_ context.Context, kind enums.NotificationType, _ *int, _, _ string) {
	s.kinds = append(s.kinds, kind)
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func newOrderService(t *testing.T, store *stubStore, colors *stubColors, cart *stubCart, notifier *stubNotifier) *Service {
	t.Helper()
	svc, err := NewService(store, colors, cart, notifier, nil)
	require.NoError(t, err)
	return svc
}

func TestPlaceOrderNormalizesSelectedColor(t *testing.T) {
	hex := "#8b0000"
	store := &stubStore{}
	colors := &stubColors{colors: map[int]catalog.VariantColor{
		9: {Name: "Maroon", Hex: &hex},
	}}
	cart := &stubCart{}
	notifier := &stubNotifier{}
	svc := newOrderService(t, store, colors, cart, notifier)

	order, err := svc.PlaceOrder(context.Background(), 5, "Ravi Kumar", "ravi@example.com", PlaceOrderInput{
		Phone:         "9876500000",
		Address:       "45 MG Road, Mysuru",
		TotalAmount:   1200,
		PaymentMethod: "upi",
		Items: []LineItemInput{
			{ProductID: 1, Name: "Kurta", Quantity: 1, Price: 700, VariantID: intptr(9)},
			{ProductID: 2, Name: "Dupatta", Quantity: 1, Price: 300, VariantColor: strptr("Teal")},
			{ProductID: 3, Name: "Gift Box", Quantity: 1, Price: 200},
			{ProductID: 4, Name: "Stole", Quantity: 1, Price: 0, VariantID: intptr(404), VariantColor: strptr("Grey")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Ravi Kumar", order.CustomerName)
	require.Equal(t, "ravi@example.com", order.Email)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(order.Items), &items))
	require.Len(t, items, 4)

	resolved := items[0]["selectedColor"].(map[string]any)
	require.Equal(t, "Maroon", resolved["name"])
	require.Equal(t, "#8b0000", resolved["hex"])

	fromString := items[1]["selectedColor"].(map[string]any)
	require.Equal(t, "Teal", fromString["name"])
	require.Nil(t, fromString["hex"])

	require.Nil(t, items[2]["selectedColor"])

	// An unresolvable variant id falls back to the provided color string.
	fallback := items[3]["selectedColor"].(map[string]any)
	require.Equal(t, "Grey", fallback["name"])

	require.Equal(t, []int{5}, cart.cleared)
	require.Equal(t, []enums.NotificationType{enums.NotificationTypeOrder}, notifier.kinds)
}

func TestPlaceOrderRejectsNonUPI(t *testing.T) {
	svc := newOrderService(t, &stubStore{}, &stubColors{}, &stubCart{}, &stubNotifier{})

	for _, method := range []string{"cash", "card", ""} {
		_, err := svc.PlaceOrder(context.Background(), 1, "n", "e@example.com", PlaceOrderInput{
			Phone:         "1",
			Address:       "a",
			TotalAmount:   10,
			PaymentMethod: method,
			Items:         []LineItemInput{{ProductID: 1, Quantity: 1}},
		})
		require.Error(t, err, "method %q", method)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestListForUserAttachesLatestShipment(t *testing.T) {
	store := &stubStore{
		byEmail: []models.Order{
			{ID: 1, Email: "a@example.com", Items: "[]"},
			{ID: 2, Email: "a@example.com", Items: "[]"},
		},
		shipped: map[int]models.Shipment{
			2: {ID: 11, OrderID: 2, TrackingNumber: strptr("TRK-9")},
		},
	}
	svc := newOrderService(t, store, &stubColors{}, &stubCart{}, &stubNotifier{})

	views, err := svc.ListForUser(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Nil(t, views[0].Shipment)
	require.NotNil(t, views[1].Shipment)
	require.Equal(t, "TRK-9", *views[1].Shipment.TrackingNumber)
}
