package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

type mockTokenParser struct {
	mock.Mock
}

func (m *mockTokenParser) ParseAccess(token string) (entity.Actor, error) {
	args := m.Called(token)
	return args.Get(0).(entity.Actor), args.Error(1)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	actor := entity.Actor{ID: uuid.New(), Role: valueobject.RoleOwner}

	tokens := &mockTokenParser{}
	tokens.On("ParseAccess", "good").Return(actor, nil)
	tokens.On("ParseAccess", "bad").Return(entity.Actor{}, errors.New("signature is invalid"))

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		got, ok := ActorFrom(c)
		assert.True(t, ok)
		c.String(http.StatusOK, got.ID.String())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req.Header.Set("Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req.Header.Set("Authorization", "Bearer good")
	rec := serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, actor.ID.String(), rec.Body.String())

	tokens.AssertExpectations(t)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimitMiddleware(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), string(apperror.ErrCodeRateLimited))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestUUIDValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v/:id/s/:slotId", UUIDValidator("id", "slotId"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/v/"+uuid.NewString()+"/s/"+uuid.NewString(), nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/v/"+uuid.NewString()+"/s/x", nil)).Code)
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) { _ = c.Error(apperror.ErrOverlapConflict) })
	r.GET("/db", func(c *gin.Context) {
		_ = c.Error(apperror.Wrap(errors.New("pq: connection reset"), apperror.ErrCodeDatabaseError, "не удалось сохранить бронь"))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "OVERLAP_CONFLICT")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/db", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
