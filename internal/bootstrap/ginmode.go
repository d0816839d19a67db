package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode picks the gin mode from the app environment so production
// runs without the debug route dump.
func SetGinMode(environment string) {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
