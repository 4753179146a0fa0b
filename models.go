package localauth

import (
	"time"

	"github.com/google/uuid"
)

// User is the public user record. ID and LoginID are immutable after
// creation; DisplayName may change, and UpdatedAt moves on every mutation.
type User struct {
	ID          uuid.UUID `json:"id"`
	LoginID     string    `json:"login_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoredUser is the persisted record. It never crosses the Auther boundary
// outward; call Public before handing a user to a consumer.
type StoredUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

// Public returns a copy of the record with the password hash stripped.
func (u *StoredUser) Public() *User {
	if u == nil {
		return nil
	}
	c := u.User
	return &c
}

// AuthResult is the payload returned by Register, Login, and Refresh.
type AuthResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
