package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedock-go/internal/model"
	"filedock-go/pkg/token"
)

// fakeSessionRepo 模拟会话存储的三种状态：有效、已注销、底层故障。
type fakeSessionRepo struct {
	exists bool
	err    error
}

func (f *fakeSessionRepo) Create(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	return nil
}

func (f *fakeSessionRepo) Exists(ctx context.Context, sessionID string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeSessionRepo) Delete(ctx context.Context, sessionID string) error {
	return nil
}

type fakeUserRepo struct {
	user *model.User
}

func (f *fakeUserRepo) Create(user *model.User) error { return nil }

func (f *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, errors.New("record not found")
	}
	return f.user, nil
}

func (f *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	return nil, errors.New("record not found")
}

func (f *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	return nil, errors.New("record not found")
}

func doAuthRequest(t *testing.T, sessions *fakeSessionRepo, users *fakeUserRepo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	jwtManager := token.NewJWTManager("test-secret", 2, 7)
	r.GET("/me", AuthMiddleware(jwtManager, sessions, users), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearerFor(t *testing.T, user *model.User, sessionID string) string {
	t.Helper()
	jwtManager := token.NewJWTManager("test-secret", 2, 7)
	tokenString, err := jwtManager.GenerateToken(user.ID, user.Username, sessionID)
	require.NoError(t, err)
	return "Bearer " + tokenString
}

func TestAuthMiddlewareAllowsValidSession(t *testing.T) {
	user := &model.User{ID: model.NewID(), Username: "alice"}
	w := doAuthRequest(t,
		&fakeSessionRepo{exists: true},
		&fakeUserRepo{user: user},
		bearerFor(t, user, "sess-1"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	w := doAuthRequest(t, &fakeSessionRepo{exists: true}, &fakeUserRepo{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doAuthRequest(t, &fakeSessionRepo{exists: true}, &fakeUserRepo{}, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doAuthRequest(t, &fakeSessionRepo{exists: true}, &fakeUserRepo{}, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsRevokedSession(t *testing.T) {
	user := &model.User{ID: model.NewID(), Username: "alice"}
	w := doAuthRequest(t,
		&fakeSessionRepo{exists: false},
		&fakeUserRepo{user: user},
		bearerFor(t, user, "sess-1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareSessionStoreFailureIsNot401(t *testing.T) {
	// 会话存储故障是 500：不能让基础设施错误伪装成"登录已失效"
	user := &model.User{ID: model.NewID(), Username: "alice"}
	w := doAuthRequest(t,
		&fakeSessionRepo{err: errors.New("connection refused")},
		&fakeUserRepo{user: user},
		bearerFor(t, user, "sess-1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddlewareRejectsDeletedUser(t *testing.T) {
	user := &model.User{ID: model.NewID(), Username: "alice"}
	w := doAuthRequest(t,
		&fakeSessionRepo{exists: true},
		&fakeUserRepo{user: nil},
		bearerFor(t, user, "sess-1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
