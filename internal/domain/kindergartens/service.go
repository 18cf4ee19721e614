package kindergartens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mung-manager/internal/apperr"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("kindergartens: not found")

// PlaceSearcher is the external map/places collaborator.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]RawPetKindergarden, error)
}

// Uploader signs object-storage upload URLs. The service never touches file
// bytes, only the URLs the client will end up storing.
type Uploader interface {
	PresignPut(ctx context.Context, key, contentType string) (uploadURL, publicURL string, err error)
}

type Service struct {
	repo     Repository
	places   PlaceSearcher
	uploader Uploader
	now      func() time.Time
}

func NewService(repo Repository, places PlaceSearcher, uploader Uploader) *Service {
	return &Service{
		repo:     repo,
		places:   places,
		uploader: uploader,
		now:      time.Now,
	}
}

type CreateInput struct {
	Name                          string
	MainThumbnailURL              string
	ProfileThumbnailURL           string
	PhoneNumber                   string
	VisiblePhoneNumbers           []string
	BusinessHours                 string
	RoadAddress                   string
	AbbrAddress                   string
	DetailAddress                 string
	ShortAddresses                []string
	GuideMessage                  string
	Latitude                      float64
	Longitude                     float64
	ReservationAvailabilityOption string
	ReservationChangeOption       string
	DailyPetLimit                 int
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (PetKindergarden, error) {
	if strings.TrimSpace(in.Name) == "" {
		return PetKindergarden{}, apperr.Validation("invalid_parameter_format", "name is required")
	}
	if len(in.VisiblePhoneNumbers) > 2 {
		return PetKindergarden{}, apperr.Validation("invalid_parameter_format", "at most 2 visible phone numbers")
	}
	if len(in.ShortAddresses) > 10 {
		return PetKindergarden{}, apperr.Validation("invalid_parameter_format", "at most 10 short addresses")
	}
	if in.DailyPetLimit < 0 {
		return PetKindergarden{}, apperr.Validation("invalid_parameter_format", "daily pet limit must not be negative")
	}

	avail, err := parseAvailabilityOption(in.ReservationAvailabilityOption)
	if err != nil {
		return PetKindergarden{}, err
	}
	change, err := parseChangeOption(in.ReservationChangeOption)
	if err != nil {
		return PetKindergarden{}, err
	}

	// One kindergarten per owner.
	exists, err := s.repo.ExistsByOwner(ctx, ownerUserID)
	if err != nil {
		return PetKindergarden{}, apperr.Unknown(err)
	}
	if exists {
		return PetKindergarden{}, apperr.Conflict("pet_kindergarden_already_exists", "pet kindergarden already exists for this user")
	}

	now := s.now()
	pk := PetKindergarden{
		ID:                            uuid.NewString(),
		OwnerUserID:                   ownerUserID,
		Name:                          strings.TrimSpace(in.Name),
		MainThumbnailURL:              in.MainThumbnailURL,
		ProfileThumbnailURL:           in.ProfileThumbnailURL,
		PhoneNumber:                   strings.TrimSpace(in.PhoneNumber),
		VisiblePhoneNumbers:           in.VisiblePhoneNumbers,
		BusinessHours:                 in.BusinessHours,
		RoadAddress:                   in.RoadAddress,
		AbbrAddress:                   in.AbbrAddress,
		DetailAddress:                 in.DetailAddress,
		ShortAddresses:                in.ShortAddresses,
		GuideMessage:                  in.GuideMessage,
		Latitude:                      in.Latitude,
		Longitude:                     in.Longitude,
		ReservationAvailabilityOption: avail,
		ReservationChangeOption:       change,
		DailyPetLimit:                 in.DailyPetLimit,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}

	if err := s.repo.Create(ctx, pk); err != nil {
		return PetKindergarden{}, apperr.Unknown(err)
	}
	return pk, nil
}

func (s *Service) Get(ctx context.Context, ownerUserID, id string) (PetKindergarden, error) {
	pk, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PetKindergarden{}, notFound()
		}
		return PetKindergarden{}, apperr.Unknown(err)
	}
	if pk.OwnerUserID != ownerUserID {
		return PetKindergarden{}, notFound()
	}
	return pk, nil
}

// Profile returns the caller's own kindergarten.
func (s *Service) Profile(ctx context.Context, ownerUserID string) (PetKindergarden, error) {
	pk, err := s.repo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PetKindergarden{}, notFound()
		}
		return PetKindergarden{}, apperr.Unknown(err)
	}
	return pk, nil
}

func (s *Service) Update(ctx context.Context, ownerUserID, id string, in CreateInput) (PetKindergarden, error) {
	pk, err := s.Get(ctx, ownerUserID, id)
	if err != nil {
		return PetKindergarden{}, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return PetKindergarden{}, apperr.Validation("invalid_parameter_format", "name is required")
	}
	avail, err := parseAvailabilityOption(in.ReservationAvailabilityOption)
	if err != nil {
		return PetKindergarden{}, err
	}
	change, err := parseChangeOption(in.ReservationChangeOption)
	if err != nil {
		return PetKindergarden{}, err
	}

	pk.Name = strings.TrimSpace(in.Name)
	pk.MainThumbnailURL = in.MainThumbnailURL
	pk.ProfileThumbnailURL = in.ProfileThumbnailURL
	pk.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	pk.VisiblePhoneNumbers = in.VisiblePhoneNumbers
	pk.BusinessHours = in.BusinessHours
	pk.RoadAddress = in.RoadAddress
	pk.AbbrAddress = in.AbbrAddress
	pk.DetailAddress = in.DetailAddress
	pk.ShortAddresses = in.ShortAddresses
	pk.GuideMessage = in.GuideMessage
	pk.Latitude = in.Latitude
	pk.Longitude = in.Longitude
	pk.ReservationAvailabilityOption = avail
	pk.ReservationChangeOption = change
	pk.DailyPetLimit = in.DailyPetLimit
	pk.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, pk); err != nil {
		if errors.Is(err, ErrNotFound) {
			return PetKindergarden{}, notFound()
		}
		return PetKindergarden{}, apperr.Unknown(err)
	}
	return pk, nil
}

// Search queries the external provider and mirrors the results.
func (s *Service) Search(ctx context.Context, query string) ([]RawPetKindergarden, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("invalid_parameter_format", "query is required")
	}
	if s.places == nil {
		return nil, apperr.Unknown(errors.New("place searcher not configured"))
	}

	rows, err := s.places.Search(ctx, query)
	if err != nil {
		return nil, apperr.Unknown(fmt.Errorf("place search: %w", err))
	}

	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
	}
	if len(rows) > 0 {
		if err := s.repo.SaveRaw(ctx, rows); err != nil {
			return nil, apperr.Unknown(err)
		}
	}
	return rows, nil
}

// UploadURL issues a presigned PUT for a tenant image. The returned public
// URL is what create/update later persist; file bytes never pass through
// this service.
func (s *Service) UploadURL(ctx context.Context, ownerUserID, id string, kind UploadKind, contentType string) (uploadURL, publicURL string, err error) {
	if _, err := s.Get(ctx, ownerUserID, id); err != nil {
		return "", "", err
	}
	switch kind {
	case UploadMainThumbnail, UploadProfileThumbnail:
	default:
		return "", "", apperr.Validation("invalid_parameter_format", "unknown upload kind")
	}
	if s.uploader == nil {
		return "", "", apperr.Unknown(errors.New("uploader not configured"))
	}

	key := fmt.Sprintf("pet-kindergardens/%s/%s/%s", id, kind, uuid.NewString())
	uploadURL, publicURL, uerr := s.uploader.PresignPut(ctx, key, contentType)
	if uerr != nil {
		return "", "", apperr.Unknown(uerr)
	}
	return uploadURL, publicURL, nil
}

// ExistsByIDAndOwner is the ownership guard the other domain services run
// before any tenant-scoped read or write.
func (s *Service) ExistsByIDAndOwner(ctx context.Context, id, ownerUserID string) (bool, error) {
	return s.repo.ExistsByIDAndOwner(ctx, id, ownerUserID)
}

// DailyPetLimit exposes the reservation cap for calendar reporting.
func (s *Service) DailyPetLimit(ctx context.Context, id string) (int, error) {
	pk, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return pk.DailyPetLimit, nil
}

func notFound() error {
	return apperr.NotFound("not_found_pet_kindergarden", "pet kindergarden does not exist")
}

func parseAvailabilityOption(s string) (ReservationAvailabilityOption, error) {
	switch ReservationAvailabilityOption(s) {
	case SameDayAvailability, SameDayUnavailability:
		return ReservationAvailabilityOption(s), nil
	default:
		return "", apperr.Validation("invalid_parameter_format", "unknown reservation availability option")
	}
}

func parseChangeOption(s string) (ReservationChangeOption, error) {
	switch ReservationChangeOption(s) {
	case SameDayChange, SameDayUnchange:
		return ReservationChangeOption(s), nil
	default:
		return "", apperr.Validation("invalid_parameter_format", "unknown reservation change option")
	}
}
