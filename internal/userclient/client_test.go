package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestsCarryBypassSecret(t *testing.T) {
	var gotHeader string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(BypassHeader)
		_ = json.NewEncoder(w).Encode(types.User{ID: "u1"})
	}))
	defer stub.Close()

	client := New(stub.URL, "shared-secret")
	_, err := client.GetByID(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "shared-secret", gotHeader)
}

func TestGetByEmailEscapesPath(t *testing.T) {
	var gotPath string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(types.User{ID: "u1", Email: "a+b@x.com"})
	}))
	defer stub.Close()

	client := New(stub.URL, "s")
	user, err := client.GetByEmail(context.Background(), "a+b@x.com")

	require.NoError(t, err)
	assert.Equal(t, "/users/by-email/a+b@x.com", gotPath)
	assert.Equal(t, "u1", user.ID)
}

// Error responses from the record service decode into *httperr.Error
// with the original status and message intact, so callers can relay
// them unchanged.
func TestErrorResponsesDecodePreservingStatusAndMessage(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"CONFLICT","message":"A user with this email already exists."}`))
	}))
	defer stub.Close()

	client := New(stub.URL, "s")
	_, err := client.Create(context.Background(), types.User{Email: "a@x.com"})

	var httpErr *httperr.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "CONFLICT", httpErr.Code)
	assert.Equal(t, "A user with this email already exists.", httpErr.Message)
}

// A non-JSON error body still yields a usable *httperr.Error keyed on
// the status code rather than a decode failure.
func TestMalformedErrorBodyFallsBackToStatusText(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer stub.Close()

	client := New(stub.URL, "s")
	_, err := client.GetByID(context.Background(), "u1")

	var httpErr *httperr.Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), httpErr.Message)
}

// Transport failures are plain errors, not *httperr.Error: the caller
// must not relay them as if the record service answered.
func TestTransportFailureIsNotAnHTTPError(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := stub.URL
	stub.Close()

	client := New(url, "s")
	_, err := client.GetByID(context.Background(), "u1")

	require.Error(t, err)
	var httpErr *httperr.Error
	assert.False(t, errors.As(err, &httpErr))
}

func TestDeleteTreatsNoContentAsSuccess(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer stub.Close()

	client := New(stub.URL, "s")
	assert.NoError(t, client.Delete(context.Background(), "u1"))
}

func TestHealth(t *testing.T) {
	status := http.StatusOK
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer stub.Close()

	client := New(stub.URL, "s")
	assert.NoError(t, client.Health(context.Background()))

	status = http.StatusInternalServerError
	assert.Error(t, client.Health(context.Background()))
}
