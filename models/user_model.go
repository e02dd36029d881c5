package models

import "time"

// User is a dashboard operator account.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	PublicID     string    `json:"public_id" bson:"public_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
