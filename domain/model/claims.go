package model

import "github.com/golang-jwt/jwt"

// UserClaims is the bearer token payload; Issuer carries the numeric user id.
type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}

// OAuthStateAudience marks OAuth state tokens; bearer authentication refuses them.
const OAuthStateAudience = "content-scheduler/oauth-state"

// OAuthStateClaims is signed into the OAuth state parameter to bind the callback to a user.
type OAuthStateClaims struct {
	UserID   int64  `json:"uid"`
	Platform string `json:"platform"`
	jwt.StandardClaims
}
