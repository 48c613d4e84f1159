package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/state", h.GetState)
	rg.GET("/events", h.StreamEvents)

	rg.GET("/chats", h.ListConversations)
	rg.POST("/chats", h.StartConversation)
	rg.POST("/chats/reserved", h.ContactReserved)
	rg.PUT("/chats/active", h.SelectConversation)
	rg.GET("/chats/active/messages", h.ListMessages)
	rg.POST("/chats/active/messages", h.SendActive)
	rg.POST("/chats/:id/messages", h.SendTo)
}
