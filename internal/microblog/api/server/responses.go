package server

import "github.com/Leopold1975/microblog/internal/microblog/domain/models"

type AuthResponse struct {
	User models.AuthUser `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}
