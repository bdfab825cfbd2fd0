package middleware

import (
	"context"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/auth"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/constants"
)

// ErrEmptyIdentityKey is returned when no identity hash key is configured.
var ErrEmptyIdentityKey = errors.New("identity hash key must not be empty")

type identityContextKey struct{}

// Identity is the rate limiting identity of a request.
type Identity struct {
	// Raw is user:<id> for authenticated callers, ip:<addr> otherwise.
	// It never leaves the process.
	Raw string

	// Hash is the keyed BLAKE2b-256 of Raw, hex encoded. It is the value
	// used in store keys and audit events.
	Hash string

	// Authenticated reports whether Raw is a user ID. IP identities are a
	// weaker signal: callers behind one NAT share a budget.
	Authenticated bool
}

// IdentityResolver derives identities from requests.
type IdentityResolver struct {
	key        []byte
	trustProxy bool
}

// NewIdentityResolver creates a resolver. Keys longer than 64 bytes are
// compressed with an unkeyed BLAKE2b-512 first.
func NewIdentityResolver(hashKey string, trustProxy bool) (*IdentityResolver, error) {
	if hashKey == "" {
		return nil, ErrEmptyIdentityKey
	}

	key := []byte(hashKey)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}

	return &IdentityResolver{key: key, trustProxy: trustProxy}, nil
}

// Hash returns the keyed hash of a raw identity.
func (ir *IdentityResolver) Hash(raw string) string {
	h, err := blake2b.New256(ir.key)
	if err != nil {
		// Unreachable: the key length is bounded in NewIdentityResolver
		panic(err)
	}
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// Resolve returns the identity of r. The authenticated user wins over the
// client address.
func (ir *IdentityResolver) Resolve(r *http.Request) Identity {
	if userID, ok := auth.GetUserID(r); ok && userID != "" {
		raw := constants.IdentityPrefixUser + userID
		return Identity{Raw: raw, Hash: ir.Hash(raw), Authenticated: true}
	}

	raw := constants.IdentityPrefixIP + ir.ClientIP(r)
	return Identity{Raw: raw, Hash: ir.Hash(raw)}
}

// ClientIP returns the client address. Proxy headers are only honored when
// the resolver trusts the proxy in front of the server: X-Real-IP first, then
// the right-most X-Forwarded-For entry, the one appended by that proxy.
func (ir *IdentityResolver) ClientIP(r *http.Request) string {
	if ir.trustProxy {
		if ip := parseIP(r.Header.Get(constants.HeaderXRealIP)); ip != "" {
			return ip
		}
		if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				if ip := parseIP(parts[i]); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != "" {
		return ip
	}
	return host
}

// parseIP returns the canonical form of s, or "" when s is not an address.
func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// Middleware resolves the identity once and stores it in the request context.
// It must run after auth.OptionalAuth.
func (ir *IdentityResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := ir.Resolve(r)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity stores an identity in the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// GetIdentity returns the identity stored by the identity middleware.
func GetIdentity(r *http.Request) (Identity, bool) {
	identity, ok := r.Context().Value(identityContextKey{}).(Identity)
	return identity, ok
}
