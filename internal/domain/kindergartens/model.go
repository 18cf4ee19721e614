package kindergartens

import "time"

// ReservationAvailabilityOption controls whether same-day reservations are
// accepted.
type ReservationAvailabilityOption string

const (
	SameDayAvailability   ReservationAvailabilityOption = "same_day_availability"
	SameDayUnavailability ReservationAvailabilityOption = "same_day_unavailability"
)

// ReservationChangeOption controls whether same-day changes are accepted.
type ReservationChangeOption string

const (
	SameDayChange   ReservationChangeOption = "same_day_change"
	SameDayUnchange ReservationChangeOption = "same_day_unchange"
)

// PetKindergarden is the tenant root. Every other entity is scoped to one,
// directly or through Customer/CustomerTicket.
type PetKindergarden struct {
	ID          string
	OwnerUserID string

	Name                string
	MainThumbnailURL    string
	ProfileThumbnailURL string
	PhoneNumber         string
	VisiblePhoneNumbers []string // at most 2
	BusinessHours       string

	RoadAddress    string
	AbbrAddress    string
	DetailAddress  string
	ShortAddresses []string // at most 10
	GuideMessage   string

	Latitude  float64
	Longitude float64

	ReservationAvailabilityOption ReservationAvailabilityOption
	ReservationChangeOption       ReservationChangeOption
	DailyPetLimit                 int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawPetKindergarden mirrors the payload shape of the external place-search
// provider. Rows are persisted as-is so selected results survive later
// provider changes.
type RawPetKindergarden struct {
	ID             string
	ThumbURL       string
	Tel            string
	VirtualTel     string
	Name           string
	X              float64 // longitude
	Y              float64 // latitude
	BusinessHours  string
	Address        string
	RoadAddress    string
	AbbrAddress    string
	ShortAddresses []string
}

// UploadKind selects which tenant image an upload URL is issued for.
type UploadKind string

const (
	UploadMainThumbnail    UploadKind = "main_thumbnail"
	UploadProfileThumbnail UploadKind = "profile_thumbnail"
)
