package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a session token. The backend controls the
// claim set; only expiry and identity claims are interpreted client-side.
type Claims map[string]any

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Decode parses the payload segment of a compact token and returns its claim
// mapping. Any parse failure (missing segment, invalid base64url, invalid
// JSON) returns an empty, non-nil mapping rather than an error; downstream
// checks see a token with no claims, nothing else.
func Decode(raw string) (claims Claims) {
	claims = Claims{}
	if raw == "" {
		return claims
	}
	defer func() {
		if recover() != nil {
			claims = Claims{}
		}
	}()

	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, mc); err != nil {
		return Claims{}
	}

	out := make(Claims, len(mc))
	for k, v := range mc {
		out[k] = v
	}
	return out
}

// HasExpiry reports whether an "exp" claim is present at all, usable or not.
func (c Claims) HasExpiry() bool {
	_, ok := c["exp"]
	return ok
}

// ExpiresAt returns the token expiry carried in the "exp" claim. The second
// return value is false when the claim is absent or not a usable number; per
// the session contract such tokens are treated as non-expiring.
func (c Claims) ExpiresAt() (time.Time, bool) {
	v, ok := c["exp"]
	if !ok {
		return time.Time{}, false
	}

	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0), true
	case int64:
		return time.Unix(n, 0), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(f), 0), true
	default:
		return time.Time{}, false
	}
}

// Subject returns the "sub" claim, if present.
func (c Claims) Subject() (string, bool) {
	return c.str("sub")
}

// Issuer returns the "iss" claim, if present.
func (c Claims) Issuer() (string, bool) {
	return c.str("iss")
}

func (c Claims) str(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
