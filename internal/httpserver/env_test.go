package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	loggingmw "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
)

type testEnv struct {
	t      *testing.T
	e      *echo.Echo
	events *events.Recorder
	secret []byte
}

func newTestEnv(t *testing.T, ownerOnly bool) *testEnv {
	t.Helper()

	store := testutil.NewRepo(t)
	rec := &events.Recorder{}
	secret := []byte("test-access-secret")

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logging.NewWithWriter(io.Discard, "debug")))

	Register(e, &Deps{
		Auth: &AuthHTTP{Svc: &service.AuthService{
			Users:         store,
			JWTSecret:     secret,
			RefreshSecret: []byte("test-refresh-secret"),
			Events:        rec,
		}},
		Catalog:   &CatalogHTTP{Svc: &service.CatalogService{Products: store, Events: rec, OwnerOnly: ownerOnly}},
		Cart:      &CartHTTP{Svc: &service.CartService{Cart: store, Products: store, Events: rec}},
		Discounts: &DiscountHTTP{Svc: &service.DiscountService{Discounts: store, Events: rec}},
		JWTSecret: secret,
	})

	return &testEnv{t: t, e: e, events: rec, secret: secret}
}

func (env *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	env.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(env.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"email":        email,
		"password":     "secret1",
		"nombre":       "Ana",
		"telefono":     "+56 9 1111",
		"direccion":    "Calle 1",
		"tipo_usuario": "vendedor",
	}
}

// signUp registers and logs in a user and returns the login response.
func (env *testEnv) signUp(email string) transport.LoginResponse {
	env.t.Helper()

	rec := env.do(http.MethodPost, "/api/auth/register", registerBody(email), "")
	require.Equal(env.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "secret1"}, "")
	require.Equal(env.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[transport.LoginResponse](env.t, rec)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}
