package auth

import "github.com/tendant/simple-linkbio/pkg/linkbio"

// Login methods recorded on the owner account
const (
	MethodOAuth    = "oauth"
	MethodPassword = "password"
)

// Identity is the outcome of a successful login handshake.
type Identity struct {
	Subject     string
	Name        string
	Email       string
	LoginMethod string
}

// SignInRequest converts the identity for linkbio.Service.SignIn
func (i Identity) SignInRequest() linkbio.SignInRequest {
	req := linkbio.SignInRequest{Subject: i.Subject}
	if i.Name != "" {
		name := i.Name
		req.Name = &name
	}
	if i.Email != "" {
		email := i.Email
		req.Email = &email
	}
	if i.LoginMethod != "" {
		method := i.LoginMethod
		req.LoginMethod = &method
	}
	return req
}
