package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "nextup"

// Claims is the payload of a shop session token.
//
// A token is only minted after the shop's admin secret was checked, so
// holding one is equivalent to holding the secret until it expires. The
// dashboard keeps it in a cookie; the tablet sends it as a bearer token.
type Claims struct {
	ShopID string `json:"shop_id"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for shopID with HS256.
func GenerateToken(shopID, secret string, ttl time.Duration) (string, error) {
	if shopID == "" {
		return "", errors.New("sign token: empty shop id")
	}
	now := time.Now()

	claims := Claims{
		ShopID: shopID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   shopID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken checks signature, expiry, issuer and signing method.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			// Only HMAC: rejects "none" and key-confusion tricks.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ShopID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
