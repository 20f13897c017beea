package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash *string   `json:"-"`
	GoogleID     *string   `json:"-"`
	Color        string    `json:"color"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthUser is the minimal public identity returned by the auth endpoints.
type AuthUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u User) Public() AuthUser {
	return AuthUser{ID: u.ID, Name: u.Name}
}

type UserWithColor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// AvatarColors is the palette new accounts pick their display color from.
var AvatarColors = []string{
	"#ef4444",
	"#f97316",
	"#eab308",
	"#22c55e",
	"#14b8a6",
	"#3b82f6",
	"#6366f1",
	"#a855f7",
	"#ec4899",
}

const DefaultColor = "#6366f1"
