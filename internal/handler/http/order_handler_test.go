package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/bookstore-api/internal/auth"
	handler "github.com/mkuznetsov/bookstore-api/internal/handler/http"
	"github.com/mkuznetsov/bookstore-api/internal/order"
	"github.com/mkuznetsov/bookstore-api/internal/user"
)

type mockOrderService struct {
	placeOrderFunc func(ctx context.Context, userID, cartID, addressID uuid.UUID) (*order.Order, error)
	listByUserFunc func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	getByCodeFunc  func(ctx context.Context, code string, userID uuid.UUID) (*order.Order, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID, cartID, addressID uuid.UUID) (*order.Order, error) {
	return m.placeOrderFunc(ctx, userID, cartID, addressID)
}

func (m *mockOrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockOrderService) GetByCode(ctx context.Context, code string, userID uuid.UUID) (*order.Order, error) {
	return m.getByCodeFunc(ctx, code, userID)
}

func authedRequest(t *testing.T, method, target, body string, userID uuid.UUID, role string) *http.Request {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	claims := &auth.Claims{UserID: userID, Role: role}
	return req.WithContext(handler.ContextWithClaims(req.Context(), claims))
}

func orderRouter(svc order.Service) chi.Router {
	router := chi.NewRouter()
	handler.NewOrderHandler(svc).RegisterRoutes(router)
	return router
}

func TestOrderHandler_PlaceOrder_Created(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	cartID := uuid.Must(uuid.NewV4())
	addressID := uuid.Must(uuid.NewV4())

	svc := &mockOrderService{
		placeOrderFunc: func(_ context.Context, gotUser, gotCart, gotAddress uuid.UUID) (*order.Order, error) {
			require.Equal(t, userID, gotUser)
			require.Equal(t, cartID, gotCart)
			require.Equal(t, addressID, gotAddress)
			return &order.Order{
				Code:       "abc123xyz",
				TotalPrice: decimal.RequireFromString("40.00"),
			}, nil
		},
	}

	body := `{"cart_id":"` + cartID.String() + `","address_id":"` + addressID.String() + `"}`
	req := authedRequest(t, http.MethodPost, "/orders", body, userID, user.RoleUser)
	rec := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp handler.PlaceOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Order successfully placed", resp.Message)
	assert.Equal(t, "abc123xyz", resp.OrderCode)
	assert.True(t, resp.TotalPrice.Equal(decimal.RequireFromString("40.00")))
}

func TestOrderHandler_PlaceOrder_ErrorMapping(t *testing.T) {
	cartID := uuid.Must(uuid.NewV4())
	addressID := uuid.Must(uuid.NewV4())
	body := `{"cart_id":"` + cartID.String() + `","address_id":"` + addressID.String() + `"}`

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "cart_not_found", serviceErr: order.ErrCartNotFound, wantStatus: http.StatusNotFound},
		{name: "book_not_found", serviceErr: order.ErrBookNotFound, wantStatus: http.StatusNotFound},
		{name: "address_not_found", serviceErr: order.ErrAddressNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				placeOrderFunc: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*order.Order, error) {
					return nil, tt.serviceErr
				},
			}
			req := authedRequest(t, http.MethodPost, "/orders", body, uuid.Must(uuid.NewV4()), user.RoleUser)
			rec := httptest.NewRecorder()

			orderRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOrderHandler_PlaceOrder_InsufficientStock(t *testing.T) {
	cartID := uuid.Must(uuid.NewV4())
	addressID := uuid.Must(uuid.NewV4())

	svc := &mockOrderService{
		placeOrderFunc: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*order.Order, error) {
			return nil, &order.InsufficientStockError{Available: 1}
		},
	}

	body := `{"cart_id":"` + cartID.String() + `","address_id":"` + addressID.String() + `"}`
	req := authedRequest(t, http.MethodPost, "/orders", body, uuid.Must(uuid.NewV4()), user.RoleUser)
	rec := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error     string `json:"error"`
		Available int    `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Insufficient stock", resp.Error)
	assert.Equal(t, 1, resp.Available)
}

func TestOrderHandler_PlaceOrder_BadPayload(t *testing.T) {
	svc := &mockOrderService{
		placeOrderFunc: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*order.Order, error) {
			t.Fatal("service must not be called for a bad payload")
			return nil, nil
		},
	}
	router := orderRouter(svc)

	t.Run("unknown_field", func(t *testing.T) {
		req := authedRequest(t, http.MethodPost, "/orders", `{"cart_id":"x","bogus":1}`, uuid.Must(uuid.NewV4()), user.RoleUser)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing_ids", func(t *testing.T) {
		req := authedRequest(t, http.MethodPost, "/orders", `{}`, uuid.Must(uuid.NewV4()), user.RoleUser)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_PlaceOrder_Unauthenticated(t *testing.T) {
	svc := &mockOrderService{}
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderHandler_ListOrders(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	svc := &mockOrderService{
		listByUserFunc: func(_ context.Context, gotUser uuid.UUID) ([]order.Order, error) {
			require.Equal(t, userID, gotUser)
			return []order.Order{{Code: "code00001"}, {Code: "code00002"}}, nil
		},
	}

	req := authedRequest(t, http.MethodGet, "/orders", "", userID, user.RoleUser)
	rec := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders []order.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, "code00001", resp.Orders[0].Code)
}

func TestOrderHandler_GetOrderByCode(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	svc := &mockOrderService{
		getByCodeFunc: func(_ context.Context, code string, gotUser uuid.UUID) (*order.Order, error) {
			require.Equal(t, userID, gotUser)
			if code != "abc123xyz" {
				return nil, order.ErrOrderNotFound
			}
			return &order.Order{Code: code, UserID: gotUser}, nil
		},
	}
	router := orderRouter(svc)

	t.Run("found", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/orders/abc123xyz", "", userID, user.RoleUser)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "abc123xyz", got.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		req := authedRequest(t, http.MethodGet, "/orders/missing00", "", userID, user.RoleUser)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
