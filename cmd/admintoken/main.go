package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"catalog/internal/config"
	"catalog/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
)

// 管理APIを叩くための開発用トークンを出す。
//
//	go run ./cmd/admintoken -sub 1 -ttl 1h
func main() {
	sub := flag.Int64("sub", 1, "admin user id")
	ttl := flag.Duration("ttl", 15*time.Minute, "token lifetime")
	flag.Parse()

	cfg, err := config.Read()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	issuer := &jwtIssuer{secret: []byte(cfg.JWTSecret), accessTTL: *ttl}
	signed, expiresAt, err := issuer.Issue(*sub, middleware.RoleAdmin, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(signed)
	fmt.Fprintln(os.Stderr, "expires at", expiresAt.Format(time.RFC3339))
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
