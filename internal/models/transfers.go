package models

import "time"

type TransferRequest struct {
	DestinationUsername string   `json:"destinationUsername"`
	Amount              float64  `json:"amount"`
	Currency            Currency `json:"currency"`
	IdempotencyKey      string   `json:"idempotencyKey,omitempty"`
}

type Transfer struct {
	ID                  string    `json:"id"`
	Amount              float64   `json:"amount"`
	Currency            Currency  `json:"currency"`
	Status              string    `json:"status"`
	DestinationUsername string    `json:"destinationUsername"`
	IdempotencyKey      string    `json:"idempotencyKey"`
	CreatedAt           time.Time `json:"createdAt"`
}
