package users

import (
	"time"

	"mung-manager/internal/domain/lifecycle"
)

const ProviderKakao = "kakao"

type User struct {
	ID             string
	SocialID       string
	SocialProvider string
	Email          string
	Name           string
	PhoneNumber    string

	Lifecycle lifecycle.Lifecycle
	CreatedAt time.Time
	UpdatedAt time.Time
}
