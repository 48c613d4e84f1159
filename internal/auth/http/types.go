package http

import (
	"github.com/sixchat/sixchat-backend/internal/session"
)

type signUpBody struct {
	Number   string `json:"number"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type signInBody struct {
	Number   string `json:"number"`
	Password string `json:"password"`
}

type tokenBody struct {
	IDToken string `json:"id_token" binding:"required"`
}

type displayNameBody struct {
	DisplayName string `json:"display_name"`
}

type sessionResponse struct {
	Token   string           `json:"token"`
	UID     string           `json:"uid"`
	Session session.Snapshot `json:"session"`
}
