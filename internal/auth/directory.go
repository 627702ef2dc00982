package auth

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexedwards/argon2id"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/aigov-api/internal/common"
)

//go:embed seed/users.yaml
var defaultUsers []byte

// ErrInvalidCredentials is returned when an email and password do not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// seedParams keeps startup hashing cheap; seeded accounts are development only.
var seedParams = &argon2id.Params{
	Memory:      16 * 1024,
	Iterations:  1,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

type account struct {
	identity common.Identity
	hash     string
}

// Directory is the development identity provider: a fixed set of accounts
// with argon2id password hashes.
type Directory struct {
	byEmail map[string]account
	byID    map[string]common.Identity
}

type usersFile struct {
	Users []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Picture  string `yaml:"picture"`
		Password string `yaml:"password"`
	} `yaml:"users"`
}

// LoadDefaultDirectory builds the directory from the embedded accounts.
func LoadDefaultDirectory() (*Directory, error) {
	return LoadDirectory(bytes.NewReader(defaultUsers))
}

// LoadDirectory parses accounts from YAML and hashes their passwords.
func LoadDirectory(r io.Reader) (*Directory, error) {
	var doc usersFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	d := &Directory{byEmail: make(map[string]account), byID: make(map[string]common.Identity)}
	for i, u := range doc.Users {
		if err := d.Add(common.Identity{ID: u.ID, Name: u.Name, Email: u.Email, ImageRef: u.Picture}, u.Password); err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
	}
	return d, nil
}

// Add registers an account. Emails are matched case-insensitively.
func (d *Directory) Add(ident common.Identity, password string) error {
	ident.ID = strings.TrimSpace(ident.ID)
	ident.Email = normalizeEmail(ident.Email)
	if ident.ID == "" || ident.Email == "" {
		return errors.New("id and email are required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if _, dup := d.byEmail[ident.Email]; dup {
		return fmt.Errorf("duplicate email %s", ident.Email)
	}
	if _, dup := d.byID[ident.ID]; dup {
		return fmt.Errorf("duplicate id %s", ident.ID)
	}
	hash, err := argon2id.CreateHash(password, seedParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	d.byEmail[ident.Email] = account{identity: ident, hash: hash}
	d.byID[ident.ID] = ident
	return nil
}

// Authenticate verifies credentials and returns the matching identity.
func (d *Directory) Authenticate(email, password string) (common.Identity, error) {
	acct, ok := d.byEmail[normalizeEmail(email)]
	if !ok || password == "" {
		return common.Identity{}, ErrInvalidCredentials
	}
	match, err := argon2id.ComparePasswordAndHash(password, acct.hash)
	if err != nil || !match {
		return common.Identity{}, ErrInvalidCredentials
	}
	return acct.identity, nil
}

// Lookup returns the identity for id.
func (d *Directory) Lookup(id string) (common.Identity, bool) {
	ident, ok := d.byID[strings.TrimSpace(id)]
	return ident, ok
}

// LookupEmail returns the identity registered under email.
func (d *Directory) LookupEmail(email string) (common.Identity, bool) {
	acct, ok := d.byEmail[normalizeEmail(email)]
	return acct.identity, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
