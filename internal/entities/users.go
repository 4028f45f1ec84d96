package entities

import "time"

// User is an identity record. The username is unique and immutable after
// creation; PasswordHash is only ever written by the auth package and is
// replaced wholesale on password change.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
