package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
)

// Fail writes the JSON error envelope for err. Operational errors keep
// their message; everything else is logged and answered opaquely so
// internal detail never leaks to the caller.
func Fail(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		c.JSON(ae.Code, gin.H{"status": statusWord(ae.Code), "message": ae.Message})
		return
	}

	log.Printf("[error] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Algo salió mal"})
}

func statusWord(code int) string {
	if code >= 500 {
		return "error"
	}
	return "fail"
}
