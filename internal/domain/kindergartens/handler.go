package kindergartens

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"mung-manager/internal/apperr"
	"mung-manager/internal/httpx"
	"mung-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the kindergarten tree. The tenant callback, when
// set, registers additional subtrees under /{petKindergardenID} so the
// other domains share one tenant-scoped router.
func RegisterRoutes(r chi.Router, svc *Service, log *slog.Logger, tenant func(chi.Router)) {
	r.Route("/pet-kindergardens", func(kr chi.Router) {
		kr.Post("/", createHandler(svc, log))
		kr.Get("/profile", profileHandler(svc, log))
		kr.Get("/search", searchHandler(svc, log))
		kr.Route("/{petKindergardenID}", func(tr chi.Router) {
			tr.Get("/", getHandler(svc, log))
			tr.Put("/", updateHandler(svc, log))
			tr.Post("/upload-url", uploadURLHandler(svc, log))
			if tenant != nil {
				tenant(tr)
			}
		})
	})
}

type kindergardenRequest struct {
	Name                          string   `json:"name"`
	MainThumbnailURL              string   `json:"main_thumbnail_url"`
	ProfileThumbnailURL           string   `json:"profile_thumbnail_url"`
	PhoneNumber                   string   `json:"phone_number"`
	VisiblePhoneNumbers           []string `json:"visible_phone_numbers"`
	BusinessHours                 string   `json:"business_hours"`
	RoadAddress                   string   `json:"road_address"`
	AbbrAddress                   string   `json:"abbr_address"`
	DetailAddress                 string   `json:"detail_address"`
	ShortAddresses                []string `json:"short_addresses"`
	GuideMessage                  string   `json:"guide_message"`
	Latitude                      float64  `json:"latitude"`
	Longitude                     float64  `json:"longitude"`
	ReservationAvailabilityOption string   `json:"reservation_availability_option"`
	ReservationChangeOption       string   `json:"reservation_change_option"`
	DailyPetLimit                 int      `json:"daily_pet_limit"`
}

type kindergardenResponse struct {
	ID                            string   `json:"id"`
	Name                          string   `json:"name"`
	MainThumbnailURL              string   `json:"main_thumbnail_url"`
	ProfileThumbnailURL           string   `json:"profile_thumbnail_url"`
	PhoneNumber                   string   `json:"phone_number"`
	VisiblePhoneNumbers           []string `json:"visible_phone_numbers"`
	BusinessHours                 string   `json:"business_hours"`
	RoadAddress                   string   `json:"road_address"`
	AbbrAddress                   string   `json:"abbr_address"`
	DetailAddress                 string   `json:"detail_address"`
	ShortAddresses                []string `json:"short_addresses"`
	GuideMessage                  string   `json:"guide_message"`
	Latitude                      float64  `json:"latitude"`
	Longitude                     float64  `json:"longitude"`
	ReservationAvailabilityOption string   `json:"reservation_availability_option"`
	ReservationChangeOption       string   `json:"reservation_change_option"`
	DailyPetLimit                 int      `json:"daily_pet_limit"`
}

type rawKindergardenResponse struct {
	ID             string   `json:"id"`
	ThumbURL       string   `json:"thum_url"`
	Tel            string   `json:"tel"`
	VirtualTel     string   `json:"virtual_tel"`
	Name           string   `json:"name"`
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	BusinessHours  string   `json:"business_hours"`
	Address        string   `json:"address"`
	RoadAddress    string   `json:"road_address"`
	AbbrAddress    string   `json:"abbr_address"`
	ShortAddresses []string `json:"short_address"`
}

func (in kindergardenRequest) toInput() CreateInput {
	return CreateInput{
		Name:                          in.Name,
		MainThumbnailURL:              in.MainThumbnailURL,
		ProfileThumbnailURL:           in.ProfileThumbnailURL,
		PhoneNumber:                   in.PhoneNumber,
		VisiblePhoneNumbers:           in.VisiblePhoneNumbers,
		BusinessHours:                 in.BusinessHours,
		RoadAddress:                   in.RoadAddress,
		AbbrAddress:                   in.AbbrAddress,
		DetailAddress:                 in.DetailAddress,
		ShortAddresses:                in.ShortAddresses,
		GuideMessage:                  in.GuideMessage,
		Latitude:                      in.Latitude,
		Longitude:                     in.Longitude,
		ReservationAvailabilityOption: in.ReservationAvailabilityOption,
		ReservationChangeOption:       in.ReservationChangeOption,
		DailyPetLimit:                 in.DailyPetLimit,
	}
}

func createHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
			return
		}

		var req kindergardenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		pk, err := svc.Create(r.Context(), claims.UserID, req.toInput())
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toResponse(pk))
	}
}

func getHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
			return
		}

		pk, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "petKindergardenID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(pk))
	}
}

func profileHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
			return
		}

		pk, err := svc.Profile(r.Context(), claims.UserID)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(pk))
	}
}

func updateHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
			return
		}

		var req kindergardenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		pk, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "petKindergardenID"), req.toInput())
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponse(pk))
	}
}

func searchHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
			return
		}

		rows, err := svc.Search(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		out := make([]rawKindergardenResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, rawKindergardenResponse{
				ID:             row.ID,
				ThumbURL:       row.ThumbURL,
				Tel:            row.Tel,
				VirtualTel:     row.VirtualTel,
				Name:           row.Name,
				X:              row.X,
				Y:              row.Y,
				BusinessHours:  row.BusinessHours,
				Address:        row.Address,
				RoadAddress:    row.RoadAddress,
				AbbrAddress:    row.AbbrAddress,
				ShortAddresses: row.ShortAddresses,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

type uploadURLRequest struct {
	Kind        string `json:"kind"` // main_thumbnail | profile_thumbnail
	ContentType string `json:"content_type"`
}

type uploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

func uploadURLHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
			return
		}

		var req uploadURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		uploadURL, publicURL, err := svc.UploadURL(
			r.Context(), claims.UserID, chi.URLParam(r, "petKindergardenID"),
			UploadKind(req.Kind), req.ContentType,
		)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, uploadURLResponse{UploadURL: uploadURL, PublicURL: publicURL})
	}
}

func toResponse(pk PetKindergarden) kindergardenResponse {
	return kindergardenResponse{
		ID:                            pk.ID,
		Name:                          pk.Name,
		MainThumbnailURL:              pk.MainThumbnailURL,
		ProfileThumbnailURL:           pk.ProfileThumbnailURL,
		PhoneNumber:                   pk.PhoneNumber,
		VisiblePhoneNumbers:           pk.VisiblePhoneNumbers,
		BusinessHours:                 pk.BusinessHours,
		RoadAddress:                   pk.RoadAddress,
		AbbrAddress:                   pk.AbbrAddress,
		DetailAddress:                 pk.DetailAddress,
		ShortAddresses:                pk.ShortAddresses,
		GuideMessage:                  pk.GuideMessage,
		Latitude:                      pk.Latitude,
		Longitude:                     pk.Longitude,
		ReservationAvailabilityOption: string(pk.ReservationAvailabilityOption),
		ReservationChangeOption:       string(pk.ReservationChangeOption),
		DailyPetLimit:                 pk.DailyPetLimit,
	}
}
