package domain

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Avatar       string `json:"avatar,omitempty"`
	Description  string `json:"description,omitempty"`
	Background   string `json:"background,omitempty"`
}
