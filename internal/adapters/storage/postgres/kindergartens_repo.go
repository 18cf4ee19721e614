package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"mung-manager/internal/domain/kindergartens"
)

type KindergartensRepo struct {
	db *sql.DB
}

func NewKindergartensRepo(db *sql.DB) *KindergartensRepo {
	return &KindergartensRepo{db: db}
}

const kindergartenColumns = `
	id, owner_user_id,
	name, main_thumbnail_url, profile_thumbnail_url,
	phone_number, visible_phone_numbers, business_hours,
	road_address, abbr_address, detail_address, short_addresses,
	guide_message, latitude, longitude,
	reservation_availability_option, reservation_change_option,
	daily_pet_limit, created_at, updated_at
`

func (r *KindergartensRepo) Create(ctx context.Context, pk kindergartens.PetKindergarden) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_kindergardens (`+kindergartenColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		pk.ID,
		pk.OwnerUserID,
		pk.Name,
		pk.MainThumbnailURL,
		pk.ProfileThumbnailURL,
		pk.PhoneNumber,
		joinList(pk.VisiblePhoneNumbers),
		pk.BusinessHours,
		pk.RoadAddress,
		pk.AbbrAddress,
		pk.DetailAddress,
		joinList(pk.ShortAddresses),
		pk.GuideMessage,
		pk.Latitude,
		pk.Longitude,
		string(pk.ReservationAvailabilityOption),
		string(pk.ReservationChangeOption),
		pk.DailyPetLimit,
		pk.CreatedAt,
		pk.UpdatedAt,
	)
	return err
}

func (r *KindergartensRepo) Update(ctx context.Context, pk kindergartens.PetKindergarden) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pet_kindergardens
		SET
			name = $2,
			main_thumbnail_url = $3,
			profile_thumbnail_url = $4,
			phone_number = $5,
			visible_phone_numbers = $6,
			business_hours = $7,
			road_address = $8,
			abbr_address = $9,
			detail_address = $10,
			short_addresses = $11,
			guide_message = $12,
			latitude = $13,
			longitude = $14,
			reservation_availability_option = $15,
			reservation_change_option = $16,
			daily_pet_limit = $17,
			updated_at = $18
		WHERE id = $1
	`,
		pk.ID,
		pk.Name,
		pk.MainThumbnailURL,
		pk.ProfileThumbnailURL,
		pk.PhoneNumber,
		joinList(pk.VisiblePhoneNumbers),
		pk.BusinessHours,
		pk.RoadAddress,
		pk.AbbrAddress,
		pk.DetailAddress,
		joinList(pk.ShortAddresses),
		pk.GuideMessage,
		pk.Latitude,
		pk.Longitude,
		string(pk.ReservationAvailabilityOption),
		string(pk.ReservationChangeOption),
		pk.DailyPetLimit,
		pk.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return kindergartens.ErrNotFound
	}
	return nil
}

func (r *KindergartensRepo) GetByID(ctx context.Context, id string) (kindergartens.PetKindergarden, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+kindergartenColumns+`
		FROM pet_kindergardens
		WHERE id = $1
	`, id)
	return scanKindergarden(row)
}

func (r *KindergartensRepo) GetByOwner(ctx context.Context, ownerUserID string) (kindergartens.PetKindergarden, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+kindergartenColumns+`
		FROM pet_kindergardens
		WHERE owner_user_id = $1
	`, ownerUserID)
	return scanKindergarden(row)
}

func (r *KindergartensRepo) ExistsByIDAndOwner(ctx context.Context, id, ownerUserID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pet_kindergardens WHERE id = $1 AND owner_user_id = $2
		)
	`, id, ownerUserID).Scan(&ok)
	return ok, err
}

func (r *KindergartensRepo) ExistsByOwner(ctx context.Context, ownerUserID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pet_kindergardens WHERE owner_user_id = $1
		)
	`, ownerUserID).Scan(&ok)
	return ok, err
}

func (r *KindergartensRepo) SaveRaw(ctx context.Context, rows []kindergartens.RawPetKindergarden) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, raw := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO raw_pet_kindergardens (
				id, thumb_url, tel, virtual_tel, name,
				x, y, business_hours, address, road_address,
				abbr_address, short_addresses
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (name, road_address) DO NOTHING
		`,
			raw.ID,
			raw.ThumbURL,
			raw.Tel,
			raw.VirtualTel,
			raw.Name,
			raw.X,
			raw.Y,
			raw.BusinessHours,
			raw.Address,
			raw.RoadAddress,
			raw.AbbrAddress,
			joinList(raw.ShortAddresses),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKindergarden(row rowScanner) (kindergartens.PetKindergarden, error) {
	var (
		pk             kindergartens.PetKindergarden
		visiblePhones  string
		shortAddresses string
		availability   string
		change         string
	)
	err := row.Scan(
		&pk.ID,
		&pk.OwnerUserID,
		&pk.Name,
		&pk.MainThumbnailURL,
		&pk.ProfileThumbnailURL,
		&pk.PhoneNumber,
		&visiblePhones,
		&pk.BusinessHours,
		&pk.RoadAddress,
		&pk.AbbrAddress,
		&pk.DetailAddress,
		&shortAddresses,
		&pk.GuideMessage,
		&pk.Latitude,
		&pk.Longitude,
		&availability,
		&change,
		&pk.DailyPetLimit,
		&pk.CreatedAt,
		&pk.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return kindergartens.PetKindergarden{}, kindergartens.ErrNotFound
	}
	if err != nil {
		return kindergartens.PetKindergarden{}, err
	}
	pk.VisiblePhoneNumbers = splitList(visiblePhones)
	pk.ShortAddresses = splitList(shortAddresses)
	pk.ReservationAvailabilityOption = kindergartens.ReservationAvailabilityOption(availability)
	pk.ReservationChangeOption = kindergartens.ReservationChangeOption(change)
	return pk, nil
}

// joinList flattens a small string list for a text column. None of the
// stored values (phone numbers, short addresses) may contain a newline.
func joinList(vs []string) string {
	return strings.Join(vs, "\n")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
