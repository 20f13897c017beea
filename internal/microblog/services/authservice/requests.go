package authservice

import "github.com/Leopold1975/microblog/internal/microblog/domain/models"

type SignUpRequest struct {
	Name     string `json:"name"     validate:"required,min=3,max=32,username"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleProfile is the part of a Google account used to find or create a user.
type GoogleProfile struct {
	GoogleID    string
	DisplayName string
}

type Tokens struct {
	Access  string
	Refresh string
}

type Session struct {
	User   models.AuthUser
	Tokens Tokens
}
