package http

import "github.com/gin-gonic/gin"

// RegisterPublic mounts the endpoints that issue sessions.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/signup", h.SignUp)
	rg.POST("/signin", h.SignIn)
	rg.POST("/token", h.ExchangeToken)
}

// Register mounts the endpoints that need a session.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/signout", h.SignOut)
	rg.POST("/auth/signout/all", h.SignOutEverywhere)
	rg.GET("/me", h.GetProfile)
	rg.PUT("/me", h.UpdateProfile)
}
