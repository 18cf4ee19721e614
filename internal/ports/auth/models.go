package auth

// Claims is the identity extracted from a verified access token.
type Claims struct {
	UserID string
	Email  string
}

// SocialProfile is the identity a social login provider reports.
type SocialProfile struct {
	SocialID    string
	Email       string
	Name        string
	PhoneNumber string
	Birth       string
	Gender      string
}

// TokenPair is what a successful login hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
