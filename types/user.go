package types

import "time"

// Roles a user account can hold. RoleAdmin unlocks the elevated
// validation endpoint and the admin-gated catalog routes.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account owned by the user-record service.
//
// The credential fields (PasswordHash, VerificationToken,
// PasswordResetToken) travel on the internal wire between the identity
// service and the user-record service; they are stripped with Public
// before a user leaves the identity boundary in a response.
type User struct {
	// ID is the opaque, stable identifier of the account.
	ID string `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the unique address the account was registered with,
	// case-sensitive as stored.
	Email string `json:"email" db:"email"`

	// PasswordHash is the bcrypt hash of the current password.
	PasswordHash string `json:"passwordHash,omitempty" db:"password_hash"`

	// Role is either RoleUser or RoleAdmin.
	Role string `json:"role" db:"role"`

	// IsVerified is false until the account's email has been verified.
	IsVerified bool `json:"isVerified" db:"is_verified"`

	// VerificationToken holds the currently valid email-verification
	// token, or "" when none is outstanding. An incoming token must
	// equal it verbatim to be redeemed.
	VerificationToken string `json:"verificationToken,omitempty" db:"verification_token"`

	// PasswordResetToken is the reset-flow counterpart of
	// VerificationToken. Cleared on successful redemption so the same
	// link cannot be replayed.
	PasswordResetToken string `json:"passwordResetToken,omitempty" db:"password_reset_token"`

	// AvatarKey is the object-storage key of the profile picture, if any.
	AvatarKey string `json:"avatarKey,omitempty" db:"avatar_key"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Public returns a copy safe to return to browsers: the password hash
// and the single-use tokens are cleared.
func (u User) Public() User {
	u.PasswordHash = ""
	u.VerificationToken = ""
	u.PasswordResetToken = ""
	return u
}
