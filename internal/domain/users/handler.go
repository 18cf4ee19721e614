package users

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"mung-manager/internal/apperr"
	"mung-manager/internal/httpx"
	"mung-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterAuthRoutes mounts the social login endpoints. These are the only
// routes served without an authenticated user.
func RegisterAuthRoutes(r chi.Router, svc *Service, flow auth.SocialLoginFlow, issuer auth.TokenIssuer, log *slog.Logger) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/kakao/login", kakaoLoginHandler(svc, flow, issuer, log))
	})
}

type kakaoLoginRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

func kakaoLoginHandler(svc *Service, flow auth.SocialLoginFlow, issuer auth.TokenIssuer, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req kakaoLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}
		if req.Code == "" {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "code is required"))
			return
		}

		accessToken, err := flow.GetToken(r.Context(), req.Code, req.RedirectURI)
		if err != nil {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("kakao_login_failed", "failed to exchange the authorization code"))
			return
		}
		profile, err := flow.GetUserInfo(r.Context(), accessToken)
		if err != nil {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("kakao_login_failed", "failed to load the kakao profile"))
			return
		}

		u, err := svc.CreateOrUpdateSocialUser(r.Context(), ProviderKakao, profile)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		pair, err := issuer.Issue(u.ID, u.Email)
		if err != nil {
			apperr.Write(w, r, log, apperr.Unknown(err))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			UserID:       u.ID,
		})
	}
}
