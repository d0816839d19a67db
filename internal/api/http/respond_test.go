package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
)

func failWith(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Fail(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestFail(t *testing.T) {
	t.Run("operational error keeps its message", func(t *testing.T) {
		code, body := failWith(t, apperr.NotFound("No se encontró el proyecto con ese ID"))
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "fail", body["status"])
		assert.Equal(t, "No se encontró el proyecto con ese ID", body["message"])
	})

	t.Run("unexpected error is answered opaquely", func(t *testing.T) {
		code, body := failWith(t, errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "Algo salió mal", body["message"])
		assert.NotContains(t, body["message"], "connection refused")
	})

	t.Run("wrapped operational error still maps", func(t *testing.T) {
		wrapped := errors.Join(apperr.Forbidden("You do not have permission to perform this action"), errors.New("context"))
		code, _ := failWith(t, wrapped)
		assert.Equal(t, http.StatusForbidden, code)
	})
}
