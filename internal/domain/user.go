package domain

import "time"

// User representa una cuenta registrada. El digest de la contraseña
// nunca se serializa hacia afuera.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"`
	DisplayName    string    `json:"name,omitempty"`
	EmailVerified  bool      `json:"email_verified"`
	CreatedAt      time.Time `json:"created_at"`
}
