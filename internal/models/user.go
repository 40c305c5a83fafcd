package models

// User is an operator account allowed to drive the site and forecast commands.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never serialized
}
