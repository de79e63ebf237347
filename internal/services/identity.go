package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/internal/token"
	"github.com/quizdeck/backend/types"
	"golang.org/x/crypto/bcrypt"
)

// Canonical user-facing messages. Credential-comparison failures all
// share one message so a caller cannot tell which check failed.
const (
	msgBadCredentials   = "The user credentials are incorrect."
	msgNotVerified      = "User is not verified."
	msgAlreadyVerified  = "User is already verified."
	msgUserNotFound     = "User not found."
	msgInvalidVerifyURL = "This verification link is invalid."
	msgInvalidResetURL  = "This reset password link is invalid."
)

// Directory is the identity service's view of the user-record service.
// Implementations reach it over HTTP with the bypass header attached;
// 4xx responses come back as *httperr.Error so callers can relay them
// verbatim, transport failures come back as plain errors.
type Directory interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
}

// Mailer is the outbound email capability.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// IdentityService implements the authentication flows: registration,
// login, email verification, and password reset. It holds no state of
// its own; every account read or write is delegated to the Directory.
type IdentityService struct {
	directory   Directory
	codec       *token.Codec
	mailer      Mailer
	frontendURL string
}

func NewIdentityService(directory Directory, codec *token.Codec, mailer Mailer, frontendURL string) *IdentityService {
	return &IdentityService{
		directory:   directory,
		codec:       codec,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

// Register creates the account through the record store, mints an
// email-verification token, persists it, and emails the link. Record
// store 4xx responses (duplicate email, validation failures) are
// relayed to the caller unchanged.
func (s *IdentityService) Register(ctx context.Context, name, email, password, role string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user, err := s.directory.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return "", err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// Login checks the credentials and returns the sanitized profile plus
// a freshly minted session token. An unknown email and a wrong
// password produce the same response, so callers cannot enumerate
// accounts.
func (s *IdentityService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return types.User{}, "", httperr.Unauthorised(msgBadCredentials)
		}
		return types.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, "", httperr.Unauthorised(msgBadCredentials)
	}

	if !user.IsVerified {
		return types.User{}, "", httperr.Forbidden(msgNotVerified)
	}

	session, err := s.codec.SignSession(user.ID, user.Role)
	if err != nil {
		return types.User{}, "", err
	}
	return user.Public(), session, nil
}

// Validate verifies a session token and resolves the current profile
// with a fresh record-store lookup, so a role change or a deleted
// account takes effect on the next validation.
func (s *IdentityService) Validate(ctx context.Context, sessionToken string) (types.User, error) {
	claims, err := s.codec.VerifySession(sessionToken)
	if err != nil {
		return types.User{}, httperr.Unauthorised("Unauthorised")
	}

	user, err := s.directory.GetByID(ctx, claims.UserID)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return types.User{}, httperr.Unauthorised("Unauthorised")
		}
		return types.User{}, err
	}
	return user.Public(), nil
}

// ValidateAdmin is Validate plus an elevated-role requirement.
func (s *IdentityService) ValidateAdmin(ctx context.Context, sessionToken string) (types.User, error) {
	user, err := s.Validate(ctx, sessionToken)
	if err != nil {
		return types.User{}, err
	}
	if user.Role != types.RoleAdmin {
		return types.User{}, httperr.Forbidden("Admin access required.")
	}
	return user, nil
}

// VerifyEmail redeems a verification token. The token must verify
// under the verification secret, carry the email being verified, and
// equal the token currently stored on the account; which of the three
// checks failed is not revealed.
func (s *IdentityService) VerifyEmail(ctx context.Context, email, tokenString string) error {
	user, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	claimEmail, err := s.codec.VerifyVerification(tokenString)
	if err != nil || claimEmail != user.Email || tokenString != user.VerificationToken || user.VerificationToken == "" {
		return httperr.Forbidden(msgInvalidVerifyURL)
	}

	user.IsVerified = true
	user.VerificationToken = ""
	_, err = s.directory.Update(ctx, user)
	return err
}

// ResendVerification issues a fresh verification token, superseding
// any earlier one, and emails it.
func (s *IdentityService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return httperr.Conflict(msgAlreadyVerified)
	}
	return s.issueVerification(ctx, user)
}

// SendPasswordReset mints a reset token, persists it on the account,
// and emails the reset link.
func (s *IdentityService) SendPasswordReset(ctx context.Context, email string) error {
	user, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	resetToken, err := s.codec.SignReset(user.Email)
	if err != nil {
		return err
	}
	user.PasswordResetToken = resetToken
	if _, err := s.directory.Update(ctx, user); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/resetPassword/%s/%s", s.frontendURL, user.ID, resetToken)
	return s.mailer.Send(ctx, user.Email, "Reset your QuizDeck password",
		`<p>We received a request to reset your password.</p>
		<p><a href="`+link+`">Choose a new password</a></p>
		<p>If you did not request this, you can ignore this email.</p>`)
}

// CheckResetLink reports whether a reset link is still redeemable.
// An unknown account is reported the same way as a bad token.
func (s *IdentityService) CheckResetLink(ctx context.Context, id, tokenString string) error {
	user, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return httperr.Forbidden(msgInvalidResetURL)
		}
		return err
	}
	if !s.resetTokenValid(user, tokenString) {
		return httperr.Forbidden(msgInvalidResetURL)
	}
	return nil
}

// ChangePasswordWithToken redeems a reset token and writes the new
// password. The stored token is cleared in the same update, so the
// same link fails on a second redemption even though its signature
// still verifies.
func (s *IdentityService) ChangePasswordWithToken(ctx context.Context, id, tokenString, newPassword string) error {
	user, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return httperr.Forbidden(msgInvalidResetURL)
		}
		return err
	}
	if !s.resetTokenValid(user, tokenString) {
		return httperr.Forbidden(msgInvalidResetURL)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.PasswordResetToken = ""
	_, err = s.directory.Update(ctx, user)
	return err
}

// ChangePasswordWithOld is the "I know my current password" path; no
// reset token is involved and none is touched.
func (s *IdentityService) ChangePasswordWithOld(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := s.directory.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return httperr.Forbidden(msgBadCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	_, err = s.directory.Update(ctx, user)
	return err
}

// DeleteAccount removes the account after re-checking the password.
// The session token alone is not enough; a stolen cookie should not
// let an attacker erase the account.
func (s *IdentityService) DeleteAccount(ctx context.Context, id, password string) error {
	user, err := s.directory.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return httperr.Forbidden(msgBadCredentials)
	}
	return s.directory.Delete(ctx, user.ID)
}

// Health reports whether the record store is reachable.
func (s *IdentityService) Health(ctx context.Context) error {
	return s.directory.Health(ctx)
}

func (s *IdentityService) resetTokenValid(user types.User, tokenString string) bool {
	claimEmail, err := s.codec.VerifyReset(tokenString)
	if err != nil {
		return false
	}
	return claimEmail == user.Email && tokenString == user.PasswordResetToken && user.PasswordResetToken != ""
}

func (s *IdentityService) issueVerification(ctx context.Context, user types.User) error {
	verificationToken, err := s.codec.SignVerification(user.Email)
	if err != nil {
		return err
	}
	user.VerificationToken = verificationToken
	if _, err := s.directory.Update(ctx, user); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/verifyEmail/%s/%s", s.frontendURL, user.Email, verificationToken)
	return s.mailer.Send(ctx, user.Email, "Verify your QuizDeck email",
		`<p>Welcome to QuizDeck!</p>
		<p><a href="`+link+`">Verify your email</a> to activate your account.</p>`)
}

func isStatus(err error, status int) bool {
	var httpErr *httperr.Error
	return errors.As(err, &httpErr) && httpErr.Status == status
}
