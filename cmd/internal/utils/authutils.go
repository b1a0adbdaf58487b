package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type TokenData struct {
	Sub  string
	Name string
	Exp  int64
}

// TokenVerifier checks bearer tokens issued by the identity provider. Token
// issuance is not our business, we only need a trustworthy "sub".
type TokenVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
}

// NewJWKSVerifier validates tokens against the public keys published at url.
func NewJWKSVerifier(ctx context.Context, url string) (*TokenVerifier, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS from resource at %s: %w", url, err)
	}

	log.Infof("JWKS initialized. Keys loaded from %s", url)
	return &TokenVerifier{
		keyfunc: jwks.Keyfunc,
		methods: []string{"RS256", "ES256"},
	}, nil
}

// NewHMACVerifier validates HS256 tokens signed with a shared secret.
func NewHMACVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{
		keyfunc: func(*jwt.Token) (any, error) { return secret, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
	}
}

// ValidateToken parses AND validates the signature locally.
// It returns the data if the token is authentic and unexpired.
func (v *TokenVerifier) ValidateToken(tokenString string) (*TokenData, error) {
	if v == nil || v.keyfunc == nil {
		return nil, errors.New("token verifier not initialized")
	}

	clean := sanitizeToken(tokenString)
	token, err := jwt.Parse(clean, v.keyfunc, jwt.WithValidMethods(v.methods), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}

	data := &TokenData{
		Sub:  getValue(claims, "sub"),
		Name: firstValue(claims, "name", "preferred_username", "email"),
		Exp:  getInt64(claims, "exp"),
	}
	if data.Sub == "" {
		return nil, errors.New("token has no subject")
	}
	return data, nil
}

func (v *TokenVerifier) ParseTokenDataCtx(ctx echo.Context) (*TokenData, error) {
	token := ctx.Request().Header.Get(echo.HeaderAuthorization)
	return v.ValidateToken(token)
}

func sanitizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

func getValue(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func firstValue(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v := getValue(claims, k); v != "" {
			return v
		}
	}
	return ""
}

func getInt64(claims jwt.MapClaims, key string) int64 {
	val, ok := claims[key]
	if !ok {
		return 0
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}
