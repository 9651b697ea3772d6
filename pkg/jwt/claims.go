package jwt

import "github.com/golang-jwt/jwt/v5"

// TriggerClaims are the claims carried by a transition trigger token.
// External schedulers present these on the trigger endpoint.
type TriggerClaims struct {
	jwt.RegisteredClaims
	Source string `json:"source"`
}
