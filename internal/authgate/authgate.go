// Package authgate is the request gate every non-identity service
// mounts in front of its protected routes. It does not verify tokens
// itself: it forwards the session cookie to the identity service's
// validation endpoint and trusts the answer, relaying any failure to
// the client byte-for-byte.
package authgate

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/types"
)

const (
	// CookieName is the session cookie every protected route expects.
	CookieName = "jwt"

	// BypassHeader carries the inter-service shared secret. A request
	// bearing the right value skips session validation entirely.
	BypassHeader = "bypass"

	// HealthPath stays reachable without a session for liveness probes.
	HealthPath = "/health"
)

type contextKey string

const identityKey contextKey = "authgate.identity"

// Gate is an explicit, constructed middleware value; build one per
// service and pass it to the router. There is no package-level
// registry.
type Gate struct {
	identityURL  string
	bypassSecret string
	client       *http.Client
}

func New(identityURL, bypassSecret string) *Gate {
	return &Gate{
		identityURL:  identityURL,
		bypassSecret: bypassSecret,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Require gates a route on a valid session.
func (g *Gate) Require(next http.Handler) http.Handler {
	return g.middleware(next, "/validate")
}

// RequireAdmin gates a route on a valid session with the ADMIN role.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.middleware(next, "/validateAdmin")
}

func (g *Gate) middleware(next http.Handler, validatePath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == HealthPath {
			next.ServeHTTP(w, r)
			return
		}

		if g.bypassAllowed(r) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			// No cookie means no downstream call: reject locally.
			writeError(w, httperr.Unauthorised("Unauthorised"))
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, g.identityURL+validatePath, nil)
		if err != nil {
			writeError(w, httperr.Internal())
			return
		}
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie.Value})

		resp, err := g.client.Do(req)
		if err != nil {
			log.Printf("authgate: session validation call failed: %v", err)
			writeError(w, httperr.Internal())
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			relay(w, resp)
			return
		}

		var identity types.User
		if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
			log.Printf("authgate: bad validation response: %v", err)
			writeError(w, httperr.Internal())
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) bypassAllowed(r *http.Request) bool {
	if g.bypassSecret == "" {
		return false
	}
	header := r.Header.Get(BypassHeader)
	return subtle.ConstantTimeCompare([]byte(header), []byte(g.bypassSecret)) == 1
}

// FromContext returns the identity the gate resolved for this request.
// Requests admitted via the bypass header carry no identity.
func FromContext(ctx context.Context) (types.User, bool) {
	identity, ok := ctx.Value(identityKey).(types.User)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity; used by
// handler tests to simulate a gated request.
func WithIdentity(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// relay copies the identity service's response downward unchanged, so
// the client sees the error exactly as it originated.
func relay(w http.ResponseWriter, resp *http.Response) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func writeError(w http.ResponseWriter, httpErr *httperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}
