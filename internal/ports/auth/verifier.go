package auth

import "context"

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer mints a token pair for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string) (TokenPair, error)
}

// SocialLoginFlow is the external OAuth collaborator. The handshake
// mechanics live entirely behind this port; the core only consumes the
// resolved profile.
type SocialLoginFlow interface {
	GetToken(ctx context.Context, code, redirectURI string) (string, error)
	GetUserInfo(ctx context.Context, accessToken string) (SocialProfile, error)
}
