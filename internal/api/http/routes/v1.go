package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/sixchat/sixchat-backend/internal/api/http/middleware"
	authhttp "github.com/sixchat/sixchat-backend/internal/auth/http"
	authmw "github.com/sixchat/sixchat-backend/internal/auth/middleware"
	"github.com/sixchat/sixchat-backend/internal/backend"
	chatshttp "github.com/sixchat/sixchat-backend/internal/chats/http"
	"github.com/sixchat/sixchat-backend/internal/sessions"
)

type V1Deps struct {
	Hub                   *sessions.Hub
	Verifier              backend.TokenVerifier
	AuthAttemptsPerMinute int
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	authHandler := authhttp.New(dep.Hub, dep.Verifier)

	public := api.Group("/auth")
	public.Use(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(dep.AuthAttemptsPerMinute)))
	authHandler.RegisterPublic(public)

	private := api.Group("")
	private.Use(authmw.SessionAuthMiddleware(dep.Hub))
	authHandler.Register(private)
	chatshttp.New().Register(private)
}
