package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ID    int    `json:"id"`
	Role  int    `json:"role"`
	Email string `json:"email"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "cloud-s5-secret"
	}
	return secret
}

// TokenLifespan returns the token TTL for a role. Field agents (role 3) get
// a longer session for mobile use.
func TokenLifespan(roleId int) time.Duration {
	minutes := intEnv("TOKEN_MINUTE_LIFESPAN", 60)
	if roleId == 3 {
		minutes = intEnv("TOKEN_MINUTE_LIFESPAN_AGENT", 120)
	}
	return time.Duration(minutes) * time.Minute
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func JwtGenerate(userID int, roleId int, email string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:    userID,
		Role:  roleId,
		Email: email,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(TokenLifespan(roleId)).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	token, err := t.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return token, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
}
