package models

import "time"

// Profile — GET /users/me. Wallets: валюта -> id кошелька.
type Profile struct {
	ID        string              `json:"id"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	Email     string              `json:"email"`
	Username  string              `json:"username"`
	Phone     string              `json:"phone,omitempty"`
	Role      string              `json:"role,omitempty"`
	Wallets   map[Currency]string `json:"wallets,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"isActive"`
}

type UsernameAvailability struct {
	Available bool `json:"available"`
}

type UpdateUsernameRequest struct {
	Username string `json:"username"`
}
