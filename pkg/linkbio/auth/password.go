package auth

import (
	"errors"
	"fmt"

	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong password
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", linkbio.ErrUnauthorized)

// PasswordLogin authenticates the single configured owner by password.
type PasswordLogin struct {
	subject string
	name    string
	hash    []byte
}

// NewPasswordLogin checks that hash is a bcrypt hash
func NewPasswordLogin(subject, name, hash string) (*PasswordLogin, error) {
	if subject == "" {
		return nil, errors.New("password login subject is required")
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}
	return &PasswordLogin{subject: subject, name: name, hash: []byte(hash)}, nil
}

// Verify compares password against the stored hash
func (p *PasswordLogin) Verify(password string) (*Identity, error) {
	if password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Subject: p.subject, Name: p.name, LoginMethod: MethodPassword}, nil
}

// HashPassword returns a bcrypt hash suitable for NewPasswordLogin
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
