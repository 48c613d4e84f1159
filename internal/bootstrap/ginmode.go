package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode maps APP_ENV onto Gin's run mode.
func SetGinMode(env string) {
	switch env {
	case "production", "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
