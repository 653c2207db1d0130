package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	capjwt "github.com/hashicorp/cap/jwt"
	"github.com/rs/zerolog"

	"github.com/edvin/fedreg/internal/api/response"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the verified caller of a request.
type Identity struct {
	Issuer  string
	Subject string
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity extracts the Identity from the request context. It is nil for
// anonymous requests.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// Authenticated reports whether the request carried a valid token.
func Authenticated(ctx context.Context) bool { return GetIdentity(ctx) != nil }

// TokenValidator verifies a token's signature and expected claims. It is
// satisfied by *jwt.Validator from hashicorp/cap.
type TokenValidator interface {
	Validate(ctx context.Context, token string, expected capjwt.Expected) (map[string]interface{}, error)
}

var signingAlgorithms = []capjwt.Alg{
	capjwt.RS256, capjwt.RS384, capjwt.RS512, capjwt.ES256, capjwt.ES384,
	capjwt.ES512, capjwt.PS256, capjwt.PS384, capjwt.PS512, capjwt.EdDSA,
}

// Authenticator checks bearer tokens against the trusted OIDC issuers.
type Authenticator struct {
	validators    map[string]TokenValidator
	audiences     []string
	writeSubjects []string
}

// NewAuthenticator discovers the key set of every trusted issuer. An empty
// audience skips the audience check; empty writeSubjects lets every subject
// of a trusted issuer write.
func NewAuthenticator(ctx context.Context, issuers []string, audience string, writeSubjects []string) (*Authenticator, error) {
	validators := make(map[string]TokenValidator, len(issuers))
	for _, issuer := range issuers {
		keySet, err := capjwt.NewOIDCDiscoveryKeySet(ctx, issuer, "")
		if err != nil {
			return nil, fmt.Errorf("discover keys of %s: %w", issuer, err)
		}
		v, err := capjwt.NewValidator(keySet)
		if err != nil {
			return nil, fmt.Errorf("create validator for %s: %w", issuer, err)
		}
		validators[issuer] = v
	}
	return NewAuthenticatorWithValidators(validators, audience, writeSubjects), nil
}

// NewAuthenticatorWithValidators builds an Authenticator from validators
// keyed by issuer.
func NewAuthenticatorWithValidators(validators map[string]TokenValidator, audience string, writeSubjects []string) *Authenticator {
	a := &Authenticator{validators: validators, writeSubjects: writeSubjects}
	if audience != "" {
		a.audiences = []string{audience}
	}
	return a
}

// Middleware authenticates requests. Reads are public and an absent token
// yields an anonymous request; a token that fails verification is rejected
// with 401. Writes require a verified token from a trusted issuer whose
// subject may write, and are rejected with 401 or 403 otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		write := isWrite(r.Method)
		token := extractBearer(r)
		if token == "" {
			if write {
				response.WriteError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		issuer, err := unverifiedIssuer(token)
		if err != nil {
			response.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		v, ok := a.validators[issuer]
		if !ok {
			if write {
				response.WriteError(w, http.StatusForbidden, "Issuer not trusted")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := v.Validate(r.Context(), token, capjwt.Expected{
			Issuer:            issuer,
			Audiences:         a.audiences,
			SigningAlgorithms: signingAlgorithms,
		})
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Str("issuer", issuer).Msg("token rejected")
			response.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		subject, _ := claims["sub"].(string)
		if write && len(a.writeSubjects) > 0 && !slices.Contains(a.writeSubjects, subject) {
			response.WriteError(w, http.StatusForbidden, "Write access denied")
			return
		}

		ctx := WithIdentity(r.Context(), &Identity{Issuer: issuer, Subject: subject})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// unverifiedIssuer reads the iss claim without checking the signature, only
// to pick the validator that will.
func unverifiedIssuer(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	issuer, err := claims.GetIssuer()
	if err != nil {
		return "", err
	}
	if issuer == "" {
		return "", fmt.Errorf("token has no issuer")
	}
	return issuer, nil
}
