package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productcatalog/internal/apperr"
	"productcatalog/internal/logger"
)

func render(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, logger.Nop(), err)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestErrorValidationShowsDetails(t *testing.T) {
	err := apperr.New(apperr.CodeValidation, "validation failed").WithDetails(map[string]string{"name": "is required"})
	status, env := render(t, err)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, map[string]any{"name": "is required"}, env.Error.Details)
}

func TestErrorNotFoundUsesMessage(t *testing.T) {
	status, env := render(t, apperr.New(apperr.CodeNotFound, "product 9 not found"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product 9 not found", env.Error.Message)
}

func TestErrorUntypedIsInternal(t *testing.T) {
	status, env := render(t, errors.New("secret connection string leaked"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", env.Error.Message)
	assert.Nil(t, env.Error.Details)
}
