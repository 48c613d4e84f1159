package http

import "time"

type Handler struct {
	keepAlive time.Duration
}

func New() *Handler {
	return &Handler{keepAlive: 15 * time.Second}
}
