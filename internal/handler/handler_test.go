package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/auth"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	"github.com/lorahalle/storefront/storefront-backend/internal/service"
	"github.com/lorahalle/storefront/storefront-backend/internal/testutil"
	"github.com/lorahalle/storefront/storefront-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	testCustomer = domain.User{ID: "u1", Name: "Sophia Laurent", Email: "sophia@lorahalle.com", Role: domain.RoleUser}
	testAdmin    = domain.User{ID: "a1", Name: "Admin", Email: "admin@lorahalle.com", Role: domain.RoleAdmin}
)

// testAPI wires the real services over in-memory mocks behind the full router
type testAPI struct {
	e         *echo.Echo
	products  *testutil.MockProductRepository
	orders    *testutil.MockOrderRepository
	images    *testutil.MockImageRepository
	publisher *testutil.MockOrderPublisher
	sessions  *service.SessionService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	products := testutil.NewMockProductRepository()
	products.AddProduct(domain.Product{ID: "tote-1", Name: "Leather Tote", Price: 120, Category: "bags", Collection: "autumn"})
	products.AddProduct(domain.Product{ID: "scarf-1", Name: "Silk Scarf", Price: 45, Category: "accessories", Trending: true})
	products.AddProduct(domain.Product{ID: "belt-1", Name: "Woven Belt", Price: 60, Category: "accessories"})

	provider := &testutil.MockAuthProvider{
		LoginFn: func(ctx context.Context) (*domain.User, error) {
			switch auth.TokenFromContext(ctx) {
			case userToken:
				u := testCustomer
				return &u, nil
			case adminToken:
				u := testAdmin
				return &u, nil
			}
			return nil, domain.ErrUnauthorized
		},
	}

	hub := websocket.NewHub()
	sessions := service.NewSessionService(testutil.NewMockSnapshotStore(), provider, hub, zerolog.Nop(), service.SessionConfig{})
	orders := testutil.NewMockOrderRepository()
	images := testutil.NewMockImageRepository()
	publisher := &testutil.MockOrderPublisher{}

	catalog := service.NewCatalogService(products, service.NewImageService(images))
	checkout := service.NewCheckoutService(orders, publisher, hub)

	limiter := middleware.NewRateLimiterWithConfig(6000, 1000)
	t.Cleanup(limiter.Stop)

	e := echo.New()
	RegisterRoutes(e, middleware.Session(middleware.SessionOptions{}), limiter, sessions, Handlers{
		Store:     NewStoreHandler(sessions, catalog, decimal.RequireFromString("0.08")),
		Session:   NewSessionHandler(sessions),
		Catalog:   NewCatalogHandler(catalog),
		Order:     NewOrderHandler(sessions, checkout),
		WebSocket: NewWebSocketHandler(hub, nil),
	})

	return &testAPI{
		e:         e,
		products:  products,
		orders:    orders,
		images:    images,
		publisher: publisher,
		sessions:  sessions,
	}
}

// do sends a request for sessionID. An empty sessionID sends no session.
func (a *testAPI) do(t *testing.T, method, path, sessionID, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, sessionID, token string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/session/login", sessionID, "", echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// createTestImageData creates a valid JPEG image for testing
func createTestImageData(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// createMultipartForm creates a multipart form with file data
func createMultipartForm(fieldName, filename string, data []byte) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	if fieldName != "" {
		part, _ := writer.CreateFormFile(fieldName, filename)
		part.Write(data)
	}

	writer.Close()
	return body, writer.FormDataContentType()
}
