package client

import "net/http"

// AuthStrategy represents an interface for applying authentication to an HTTP request.
//
// The Apply method takes a *http.Request argument and modifies it to include any necessary
// authentication headers or other credentials.
type AuthStrategy interface {
	Apply(req *http.Request)
}

var _ AuthStrategy = (*BasicAuth)(nil)
var _ AuthStrategy = (*BearerToken)(nil)
var _ AuthStrategy = (*APIToken)(nil)

// BasicAuth represents basic authentication credentials.
type BasicAuth struct {
	Username, Password string
}

func (b *BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(b.Username, b.Password)
}

// BearerToken represents Bearer Token (like JWT) authentication credentials.
type BearerToken struct {
	Token string
}

func (b *BearerToken) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.Token)
}

// APIToken is a header name and value pair, e.g. X-Api-Key.
type APIToken struct {
	Header, Token string
}

func (a *APIToken) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Token)
}
