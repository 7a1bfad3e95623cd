package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/a1gato/olimpiad/internal/handler"
	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/service"
)

type routerUserRepo struct {
	user *models.User
}

func (r *routerUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.user, nil
}

func (r *routerUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.user, nil
}

func (r *routerUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

type routerLeaderboardRepo struct{}

func (r *routerLeaderboardRepo) Leaderboard(ctx context.Context, limit int) ([]models.RankedStudent, error) {
	return []models.RankedStudent{}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	password, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users := &routerUserRepo{user: &models.User{ID: "user-1", Email: "admin@olimpiad.app", PasswordHash: string(password), Active: true}}
	authSvc := service.NewAuthService(users, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		LoginDomain:       "olimpiad.app",
	})

	res, err := authSvc.Login(context.Background(), models.LoginRequest{LoginID: "admin", Password: "password"})
	require.NoError(t, err)

	leaderboardSvc := service.NewLeaderboardService(&routerLeaderboardRepo{}, nil, zap.NewNop(), 50)

	r := gin.New()
	Register(r, "/api", Deps{
		Auth:        handler.NewAuthHandler(authSvc),
		Leaderboard: handler.NewLeaderboardHandler(leaderboardSvc),
		AuthService: authSvc,
	})
	return r, res.AccessToken
}

func TestRouterLeaderboardRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/leaderboard", "/api/leaderboard/export"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouterLeaderboardServesAuthenticated(t *testing.T) {
	r, token := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterLoginStaysPublic(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"login_id":"admin","password":"password"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
