package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/pkg/service"
	"leave-system/pkg/utils"
)

type pathCheckerStub struct{ allow bool }

func (p pathCheckerStub) AllowPath(_, _, _ string) bool { return p.allow }

func newTestServer(t *testing.T, checker PathChecker) (*echo.Echo, service.JWTService) {
	t.Helper()
	jwtSvc := service.NewJWTService("test-secret", time.Minute, time.Hour)
	authMW := NewAuthMiddleware(jwtSvc, zap.NewNop())

	e := echo.New()
	handler := func(c echo.Context) error {
		actor, err := utils.GetActorFromCtx(c.Request().Context())
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, actor.Email+"|"+actor.Role)
	}
	g := e.Group("/api", authMW.Auth)
	if checker != nil {
		g.Use(RequireRoleForPath(checker, zap.NewNop()))
	}
	g.GET("/users/admin/all", handler)
	return e, jwtSvc
}

func TestAuth_AcceptsBearerAccessToken(t *testing.T) {
	e, jwtSvc := newTestServer(t, nil)
	access, _, err := jwtSvc.GenerateTokens(service.TokenSubject{UserID: 7, Email: "a@b.c", Role: "ADMIN"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/admin/all", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.c|ADMIN", rec.Body.String())
}

func TestAuth_AcceptsQueryToken(t *testing.T) {
	e, jwtSvc := newTestServer(t, nil)
	access, _, err := jwtSvc.GenerateTokens(service.TokenSubject{UserID: 7, Email: "a@b.c", Role: "USER"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/admin/all?access_token="+access, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_RejectsMissingAndMalformedHeader(t *testing.T) {
	e, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users/admin/all", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/users/admin/all", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RejectsRefreshToken(t *testing.T) {
	e, jwtSvc := newTestServer(t, nil)
	_, refresh, err := jwtSvc.GenerateTokens(service.TokenSubject{UserID: 7, Email: "a@b.c", Role: "ADMIN"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/admin/all", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+refresh)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleForPath(t *testing.T) {
	for _, allow := range []bool{true, false} {
		e, jwtSvc := newTestServer(t, pathCheckerStub{allow: allow})
		access, _, err := jwtSvc.GenerateTokens(service.TokenSubject{UserID: 3, Email: "u@b.c", Role: "USER"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/users/admin/all", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if allow {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusForbidden, rec.Code)
		}
	}
}
