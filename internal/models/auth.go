package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of access tokens issued by the identity
// service. This API only verifies tokens, it never issues them.
type TokenClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
