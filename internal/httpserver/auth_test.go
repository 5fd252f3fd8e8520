package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/testutil"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

func TestRegister_Handler(t *testing.T) {
	h := &AuthHTTP{Svc: &service.AuthService{Users: testutil.NewRepo(t), JWTSecret: []byte("k")}}
	e := echo.New()

	body := `{"email":"ana@example.com","password":"secret1","nombre":"Ana","telefono":"1","direccion":"x","tipo_usuario":"comprador"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[transport.RegisterResponse](t, rec)
	claims, err := tokens.AccessClaimsFromToken(resp.Token, []byte("k"))
	require.NoError(t, err)
	assert.NotZero(t, claims.UserID)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	err = h.Register(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "email already registered", he.Message)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name   string
		mutate func(map[string]string)
		msg    string
	}{
		{name: "missing field", mutate: func(b map[string]string) { delete(b, "direccion") }, msg: "all fields are required"},
		{name: "bad email", mutate: func(b map[string]string) { b["email"] = "not-an-email" }, msg: "invalid email format"},
		{name: "short password", mutate: func(b map[string]string) { b["password"] = "123" }, msg: "password must be at least 6 characters"},
		{name: "short multibyte password", mutate: func(b map[string]string) { b["password"] = "ñññ" }, msg: "password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := registerBody("ana@example.com")
			tt.mutate(body)
			rec := env.do(http.MethodPost, "/api/auth/register", body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.msg, errorMessage(t, rec))
		})
	}
}

func TestLogin_Handler(t *testing.T) {
	env := newTestEnv(t, false)
	login := env.signUp("ana@example.com")

	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)
	assert.Equal(t, "ana@example.com", login.User.Email)
	assert.Equal(t, "Ana", login.User.Name)
	assert.Equal(t, []string{"registered", "logged_in"}, env.events.Types(events.TopicUsers))

	rec := env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "nope!!"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Token")

	rec = env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_Handler(t *testing.T) {
	env := newTestEnv(t, false)
	login := env.signUp("ana@example.com")

	rec := env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	access := decode[transport.RefreshResponse](t, rec).AccessToken

	rec = env.do(http.MethodGet, "/api/auth/profile", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/refresh", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": login.AccessToken}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_Handler(t *testing.T) {
	env := newTestEnv(t, false)
	ana := env.signUp("ana@example.com")
	env.signUp("bob@example.com")

	rec := env.do(http.MethodGet, "/api/auth/profile", nil, ana.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "ana@example.com", profile["email"])
	assert.Equal(t, "vendedor", profile["tipo_usuario"])
	assert.Equal(t, "active", profile["estado"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "refresh")

	update := map[string]string{
		"nombre": "Ana B", "email": "bob@example.com", "telefono": "2", "direccion": "y", "imagen_url": "http://img/a.png",
	}
	rec = env.do(http.MethodPut, "/api/auth/profile", update, ana.AccessToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already in use", errorMessage(t, rec))

	update["email"] = "ana.b@example.com"
	rec = env.do(http.MethodPut, "/api/auth/profile", update, ana.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana.b@example.com", decode[map[string]any](t, rec)["email"])

	delete(update, "imagen_url")
	rec = env.do(http.MethodPut, "/api/auth/profile", update, ana.AccessToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t, false)
	login := env.signUp("ana@example.com")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "missing bearer prefix", header: login.AccessToken, want: http.StatusBadRequest},
		{name: "garbage token", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
		{name: "refresh token is not an access token", header: "Bearer " + login.RefreshToken, want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + login.AccessToken, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			env.e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
