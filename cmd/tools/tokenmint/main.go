package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/aigov-api/internal/auth"
	"github.com/noah-isme/aigov-api/internal/config"
)

type minted struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func main() {
	var (
		email  = flag.String("email", "ada@aigov.dev", "email of a seeded user")
		ttl    = flag.Duration("ttl", 0, "token lifetime; defaults to ACCESS_TOKEN_TTL")
		asJSON = flag.Bool("json", false, "print the token with its metadata as JSON")
	)
	flag.Parse()

	cfg := config.MustLoad()
	accessTTL := cfg.AccessTokenTTL
	if *ttl > 0 {
		accessTTL = *ttl
	}

	directory, err := auth.LoadDefaultDirectory()
	if err != nil {
		log.Fatalf("load users: %v", err)
	}
	svc, err := auth.NewService(auth.Config{
		Directory:      directory,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: accessTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
	})
	if err != nil {
		log.Fatalf("initialise auth: %v", err)
	}

	if err := run(os.Stdout, svc, *email, *asJSON); err != nil {
		log.Fatal(err)
	}
}

func run(out io.Writer, svc *auth.Service, email string, asJSON bool) error {
	token, err := mint(svc, email)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(token)
	}
	_, err = fmt.Fprintln(out, token.AccessToken)
	return err
}

func mint(svc *auth.Service, email string) (minted, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return minted{}, errors.New("email is required")
	}
	ident, ok := svc.Directory().LookupEmail(email)
	if !ok {
		return minted{}, fmt.Errorf("no seeded user with email %q", email)
	}
	token, expiresAt, err := svc.IssueToken(ident)
	if err != nil {
		return minted{}, fmt.Errorf("issue token: %w", err)
	}
	return minted{UserID: ident.ID, Email: ident.Email, AccessToken: token, ExpiresAt: expiresAt}, nil
}
