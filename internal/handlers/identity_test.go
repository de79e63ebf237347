package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/backend/config"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/token"
	"github.com/quizdeck/backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memDirectory struct {
	users map[string]types.User
	calls int
}

func (d *memDirectory) GetByID(_ context.Context, id string) (types.User, error) {
	d.calls++
	user, ok := d.users[id]
	if !ok {
		return types.User{}, httperr.NotFound("User not found.")
	}
	return user, nil
}

func (d *memDirectory) GetByEmail(_ context.Context, email string) (types.User, error) {
	d.calls++
	for _, user := range d.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, httperr.NotFound("User not found.")
}

func (d *memDirectory) Create(_ context.Context, user types.User) (types.User, error) {
	d.calls++
	for _, existing := range d.users {
		if existing.Email == user.Email {
			return types.User{}, httperr.Conflict("A user with this email already exists.")
		}
	}
	user.ID = "id-" + user.Email
	d.users[user.ID] = user
	return user, nil
}

func (d *memDirectory) Update(_ context.Context, user types.User) (types.User, error) {
	d.calls++
	if _, ok := d.users[user.ID]; !ok {
		return types.User{}, httperr.NotFound("User not found.")
	}
	d.users[user.ID] = user
	return user, nil
}

func (d *memDirectory) Delete(_ context.Context, id string) error {
	d.calls++
	if _, ok := d.users[id]; !ok {
		return httperr.NotFound("User not found.")
	}
	delete(d.users, id)
	return nil
}

func (d *memDirectory) Health(_ context.Context) error { return nil }

type nopMailer struct{}

func (nopMailer) Send(_ context.Context, _, _, _ string) error { return nil }

func newIdentityTestServer(t *testing.T) (*httptest.Server, *memDirectory, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec(config.SecretsConfig{
		SessionSecret:      "session-secret",
		VerificationSecret: "verification-secret",
		ResetSecret:        "reset-secret",
	})
	require.NoError(t, err)

	directory := &memDirectory{users: map[string]types.User{}}
	service := services.NewIdentityService(directory, codec, nopMailer{}, "http://frontend.test")

	router := chi.NewRouter()
	IdentityRouter(router, service)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, directory, codec
}

func seedUser(t *testing.T, directory *memDirectory, verified bool) types.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := types.User{
		ID:           "id-a@x.com",
		Name:         "A",
		Email:        "a@x.com",
		PasswordHash: string(hash),
		Role:         types.RoleUser,
		IsVerified:   verified,
	}
	directory.users[user.ID] = user
	return user
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestRegisterEndpoint(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/registerByEmail",
		`{"name":"A","email":"a@x.com","password":"pw123456","role":"USER"}`)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, `"success":true`)
	assert.Contains(t, body, `"userId":"id-a@x.com"`)
	assert.False(t, directory.users["id-a@x.com"].IsVerified)
}

func TestRegisterEndpointMissingFields(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/registerByEmail", `{"name":"A","email":"a@x.com"}`)
	readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, directory.calls)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	seedUser(t, directory, false)

	resp := doJSON(t, http.MethodPost, server.URL+"/registerByEmail",
		`{"name":"A","email":"a@x.com","password":"pw123456","role":"USER"}`)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "A user with this email already exists.")
}

// The two failure shapes must be byte-identical on the wire.
func TestLoginEnumerationResistance(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	seedUser(t, directory, true)

	wrongPassword := doJSON(t, http.MethodPost, server.URL+"/loginByEmail",
		`{"email":"a@x.com","password":"nope"}`)
	unknownEmail := doJSON(t, http.MethodPost, server.URL+"/loginByEmail",
		`{"email":"missing@x.com","password":"anything"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	assert.Equal(t, readBody(t, wrongPassword), readBody(t, unknownEmail))
}

func TestLoginSetsHTTPOnlyCookie(t *testing.T) {
	server, directory, codec := newIdentityTestServer(t)
	user := seedUser(t, directory, true)

	resp := doJSON(t, http.MethodPost, server.URL+"/loginByEmail",
		`{"email":"a@x.com","password":"pw123456"}`)
	body := readBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"success":true`)
	assert.NotContains(t, body, "passwordHash")

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, authgate.CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	claims, err := codec.VerifySession(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLoginUnverified(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	seedUser(t, directory, false)

	resp := doJSON(t, http.MethodPost, server.URL+"/loginByEmail",
		`{"email":"a@x.com","password":"pw123456"}`)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "User is not verified.")
	assert.Empty(t, resp.Cookies())
}

func TestLogoutClearsCookie(t *testing.T) {
	server, _, _ := newIdentityTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/logout", "")
	readBody(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authgate.CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestValidateWithoutCookie(t *testing.T) {
	server, _, _ := newIdentityTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/validate", "")
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, `"error":"UNAUTHORISED"`)
	assert.Contains(t, body, `"message":"Unauthorised"`)
}

func TestValidateWithForeignCookie(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	user := seedUser(t, directory, true)

	// A structurally valid JWT signed under a different secret.
	foreign, err := token.NewCodec(config.SecretsConfig{
		SessionSecret:      "other-session-secret",
		VerificationSecret: "other-verification-secret",
		ResetSecret:        "other-reset-secret",
	})
	require.NoError(t, err)
	signed, err := foreign.SignSession(user.ID, user.Role)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/validate", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: authgate.CookieName, Value: signed})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	readBody(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestValidateReturnsSanitizedProfile(t *testing.T) {
	server, directory, codec := newIdentityTestServer(t)
	user := seedUser(t, directory, true)

	signed, err := codec.SignSession(user.ID, user.Role)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/validate", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: authgate.CookieName, Value: signed})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"email":"a@x.com"`)
	assert.NotContains(t, body, "passwordHash")
}

func TestChangePasswordBodyValidation(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	seedUser(t, directory, true)

	cases := map[string]string{
		"both credentials":  `{"token":"t","oldPassword":"p","hashedNewPassword":"n"}`,
		"neither":           `{"hashedNewPassword":"n"}`,
		"no new password":   `{"token":"t"}`,
		"unexpected field":  `{"token":"t","hashedNewPassword":"n","extra":"x"}`,
		"not even json":     `not json`,
	}
	for name, body := range cases {
		before := directory.calls
		resp := doJSON(t, http.MethodPut, server.URL+"/changePassword/id-a@x.com", body)
		readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		// Rejected before any record-store access.
		assert.Equal(t, before, directory.calls, name)
	}
}

func TestVerifyEmailEndToEnd(t *testing.T) {
	server, directory, codec := newIdentityTestServer(t)
	user := seedUser(t, directory, false)

	verificationToken, err := codec.SignVerification(user.Email)
	require.NoError(t, err)
	user.VerificationToken = verificationToken
	directory.users[user.ID] = user

	resp := doJSON(t, http.MethodPut, server.URL+"/verifyEmail/a@x.com/"+verificationToken, "")
	readBody(t, resp)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	login := doJSON(t, http.MethodPost, server.URL+"/loginByEmail",
		`{"email":"a@x.com","password":"pw123456"}`)
	readBody(t, login)
	assert.Equal(t, http.StatusOK, login.StatusCode)
}

func TestResetLinkLifecycleOverHTTP(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	user := seedUser(t, directory, true)

	resp := doJSON(t, http.MethodPut, server.URL+"/sendPasswordResetEmail/a@x.com", "")
	readBody(t, resp)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resetToken := directory.users[user.ID].PasswordResetToken
	require.NotEmpty(t, resetToken)

	check := doJSON(t, http.MethodGet, server.URL+"/verifyResetPasswordLinkValidity/"+user.ID+"/"+resetToken, "")
	body := readBody(t, check)
	require.Equal(t, http.StatusOK, check.StatusCode)
	assert.Contains(t, body, `"success":true`)

	change := doJSON(t, http.MethodPut, server.URL+"/changePassword/"+user.ID,
		`{"token":"`+resetToken+`","hashedNewPassword":"newpass99"}`)
	readBody(t, change)
	require.Equal(t, http.StatusNoContent, change.StatusCode)

	replay := doJSON(t, http.MethodPut, server.URL+"/changePassword/"+user.ID,
		`{"token":"`+resetToken+`","hashedNewPassword":"again1234"}`)
	replayBody := readBody(t, replay)
	assert.Equal(t, http.StatusForbidden, replay.StatusCode)
	assert.Contains(t, replayBody, "This reset password link is invalid.")
}

// Addresses with reserved characters arrive percent-encoded in the
// path; the handlers must decode them before the record-store lookup.
func TestEmailPathParamsAreUnescaped(t *testing.T) {
	server, directory, codec := newIdentityTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := types.User{
		ID:           "id-user+tag@x.com",
		Name:         "Tagged",
		Email:        "user+tag@x.com",
		PasswordHash: string(hash),
		Role:         types.RoleUser,
	}
	directory.users[user.ID] = user

	resend := doJSON(t, http.MethodPut, server.URL+"/resendVerificationEmail/user%2Btag@x.com", "")
	readBody(t, resend)
	require.Equal(t, http.StatusNoContent, resend.StatusCode)
	require.NotEmpty(t, directory.users[user.ID].VerificationToken)

	verificationToken := directory.users[user.ID].VerificationToken
	verify := doJSON(t, http.MethodPut, server.URL+"/verifyEmail/user%2Btag@x.com/"+verificationToken, "")
	readBody(t, verify)
	assert.Equal(t, http.StatusNoContent, verify.StatusCode)
	assert.True(t, directory.users[user.ID].IsVerified)

	reset := doJSON(t, http.MethodPut, server.URL+"/sendPasswordResetEmail/user%2Btag@x.com", "")
	readBody(t, reset)
	assert.Equal(t, http.StatusNoContent, reset.StatusCode)
	resetToken := directory.users[user.ID].PasswordResetToken
	require.NotEmpty(t, resetToken)

	claimEmail, err := codec.VerifyReset(resetToken)
	require.NoError(t, err)
	assert.Equal(t, "user+tag@x.com", claimEmail)
}

func TestDeleteAccountEndpoint(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	user := seedUser(t, directory, true)

	wrong := doJSON(t, http.MethodDelete, server.URL+"/deleteAccount/"+user.ID,
		`{"password":"nope"}`)
	body := readBody(t, wrong)
	assert.Equal(t, http.StatusForbidden, wrong.StatusCode)
	assert.Contains(t, body, "The user credentials are incorrect.")
	assert.Contains(t, directory.users, user.ID)

	missing := doJSON(t, http.MethodDelete, server.URL+"/deleteAccount/"+user.ID, `{}`)
	readBody(t, missing)
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)

	resp := doJSON(t, http.MethodDelete, server.URL+"/deleteAccount/"+user.ID,
		`{"password":"pw123456"}`)
	readBody(t, resp)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotContains(t, directory.users, user.ID)
}

func TestResendVerificationConflict(t *testing.T) {
	server, directory, _ := newIdentityTestServer(t)
	seedUser(t, directory, true)

	resp := doJSON(t, http.MethodPut, server.URL+"/resendVerificationEmail/a@x.com", "")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "User is already verified.")
}

func TestIdentityHealth(t *testing.T) {
	server, _, _ := newIdentityTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/health", "")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "healthy")
}
