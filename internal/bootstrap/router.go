package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/sixchat/sixchat-backend/internal/api/http"
	"github.com/sixchat/sixchat-backend/internal/api/http/middleware"
	"github.com/sixchat/sixchat-backend/internal/api/http/routes"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/sessions"
)

type RouterDeps struct {
	ServiceName           string
	Version               string
	Driver                string
	AllowedOrigins        []string
	Hub                   *sessions.Hub
	Verifier              backend.TokenVerifier
	AuthAttemptsPerMinute int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Driver, dep.Hub)
	healthHandler.RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		Hub:                   dep.Hub,
		Verifier:              dep.Verifier,
		AuthAttemptsPerMinute: dep.AuthAttemptsPerMinute,
	})

	return r
}

// corsConfig allows the given origins. Sessions travel in the Authorization
// header, so credentials are never needed and "*" is accepted.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Length", "X-Request-Id", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			break
		}
	}
	return cfg
}
