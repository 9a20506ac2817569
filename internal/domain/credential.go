package domain

// CredentialKind tells the platform client how to authenticate a call.
type CredentialKind string

const (
	// CredentialAuthenticated carries an OAuth2 access token.
	CredentialAuthenticated CredentialKind = "authenticated"
	// CredentialFallback carries the public consumer key, sent as api_key.
	CredentialFallback CredentialKind = "fallback"
)

// Credential is the outcome of token resolution for one request.
type Credential struct {
	Kind  CredentialKind
	Token string
}

// Authenticated returns a credential backed by an access token.
func Authenticated(accessToken string) Credential {
	return Credential{Kind: CredentialAuthenticated, Token: accessToken}
}

// Fallback returns a credential backed by the public consumer key.
func Fallback(consumerKey string) Credential {
	return Credential{Kind: CredentialFallback, Token: consumerKey}
}

// IsAuthenticated reports whether the credential carries an access token.
func (c Credential) IsAuthenticated() bool {
	return c.Kind == CredentialAuthenticated
}
