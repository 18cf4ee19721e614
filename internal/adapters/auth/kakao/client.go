// Package kakao implements the social login flow against the Kakao OAuth
// endpoints.
package kakao

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"mung-manager/internal/platform/httpclient"
	"mung-manager/internal/ports/auth"
)

const (
	tokenURL    = "https://kauth.kakao.com/oauth/token"
	userInfoURL = "https://kapi.kakao.com/v2/user/me"
)

type Client struct {
	http         *httpclient.Client
	clientID     string
	clientSecret string
}

func NewClient(hc *httpclient.Client, clientID, clientSecret string) (*Client, error) {
	if hc == nil {
		return nil, errors.New("kakao: nil http client")
	}
	if clientID == "" {
		return nil, errors.New("kakao: empty client id")
	}
	return &Client{http: hc, clientID: clientID, clientSecret: clientSecret}, nil
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// GetToken exchanges the authorization code for a Kakao access token.
func (c *Client) GetToken(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {c.clientID},
		"redirect_uri": {redirectURI},
		"code":         {code},
	}
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	var out tokenResponse
	if err := c.http.DoForm(ctx, tokenURL, form, &out); err != nil {
		return "", fmt.Errorf("kakao: token request: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("kakao: token request rejected: %s (%s)", out.Error, out.ErrorDescription)
	}
	if out.AccessToken == "" {
		return "", errors.New("kakao: empty access token in response")
	}
	return out.AccessToken, nil
}

type userInfoResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		PhoneNumber string `json:"phone_number"`
		BirthYear   string `json:"birthyear"`
		Birthday    string `json:"birthday"`
		Gender      string `json:"gender"`
		Profile     struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// GetUserInfo loads the profile of the token's owner.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (auth.SocialProfile, error) {
	headers := map[string]string{"Authorization": "Bearer " + accessToken}

	var out userInfoResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, userInfoURL, headers, nil, &out); err != nil {
		return auth.SocialProfile{}, fmt.Errorf("kakao: user info request: %w", err)
	}
	if out.ID == 0 {
		return auth.SocialProfile{}, errors.New("kakao: user info response has no id")
	}

	name := out.KakaoAccount.Name
	if name == "" {
		name = out.KakaoAccount.Profile.Nickname
	}
	return auth.SocialProfile{
		SocialID:    strconv.FormatInt(out.ID, 10),
		Email:       out.KakaoAccount.Email,
		Name:        name,
		PhoneNumber: out.KakaoAccount.PhoneNumber,
		Birth:       out.KakaoAccount.BirthYear + out.KakaoAccount.Birthday,
		Gender:      out.KakaoAccount.Gender,
	}, nil
}
