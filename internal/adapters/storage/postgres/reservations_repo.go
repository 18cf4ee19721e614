package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mung-manager/internal/domain/reservations"
	"mung-manager/internal/domain/tickets"
)

type ReservationsRepo struct {
	db *sql.DB
}

func NewReservationsRepo(db *sql.DB) *ReservationsRepo {
	return &ReservationsRepo{db: db}
}

const reservationColumns = `
	id, tenant_id, customer_id, customer_pet_id, customer_ticket_id,
	reserved_at, status, is_attended, created_at, updated_at
`

func (r *ReservationsRepo) CreateWithConsume(ctx context.Context, res reservations.Reservation) (reservations.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return reservations.Reservation{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		res.ID,
		res.TenantID,
		res.CustomerID,
		res.CustomerPetID,
		res.CustomerTicketID,
		res.ReservedAt,
		string(res.Status),
		res.IsAttended,
		res.CreatedAt,
		res.UpdatedAt,
	); err != nil {
		return reservations.Reservation{}, err
	}

	if _, err := consumeTx(ctx, tx, res.CustomerTicketID, res.ID, 1, res.CreatedAt); err != nil {
		switch {
		case errors.Is(err, tickets.ErrInsufficientCount):
			return reservations.Reservation{}, reservations.ErrInsufficientCount
		case errors.Is(err, tickets.ErrAlreadyConsumed):
			return reservations.Reservation{}, reservations.ErrAlreadyConsumed
		default:
			return reservations.Reservation{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return reservations.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationsRepo) Get(ctx context.Context, tenantID, id string) (reservations.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	return scanReservation(row)
}

func (r *ReservationsRepo) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]reservations.Reservation, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE tenant_id = $1
		  AND reserved_at >= $2 AND reserved_at < $3
		ORDER BY reserved_at, id
	`, tenantID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservations.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ReservationsRepo) Update(ctx context.Context, res reservations.Reservation) error {
	out, err := r.db.ExecContext(ctx, `
		UPDATE reservations
		SET status = $3, is_attended = $4, updated_at = $5
		WHERE id = $1 AND tenant_id = $2
	`,
		res.ID,
		res.TenantID,
		string(res.Status),
		res.IsAttended,
		res.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := out.RowsAffected()
	if n == 0 {
		return reservations.ErrNotFound
	}
	return nil
}

func (r *ReservationsRepo) CountByDay(ctx context.Context, tenantID string, year int, month time.Month) (map[string]int, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('day', reserved_at AT TIME ZONE 'UTC')::date, COUNT(*)
		FROM reservations
		WHERE tenant_id = $1
		  AND reserved_at >= $2 AND reserved_at < $3
		  AND status <> $4
		GROUP BY 1
	`, tenantID, first, first.AddDate(0, 1, 0), string(reservations.StatusCanceled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			day time.Time
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[reservations.DateKey(day)] = n
	}
	return out, rows.Err()
}

func scanReservation(row rowScanner) (reservations.Reservation, error) {
	var (
		res    reservations.Reservation
		status string
	)
	err := row.Scan(
		&res.ID,
		&res.TenantID,
		&res.CustomerID,
		&res.CustomerPetID,
		&res.CustomerTicketID,
		&res.ReservedAt,
		&status,
		&res.IsAttended,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return reservations.Reservation{}, reservations.ErrNotFound
	}
	if err != nil {
		return reservations.Reservation{}, err
	}
	res.Status = reservations.Status(status)
	return res, nil
}

func (r *ReservationsRepo) ListDayOffs(ctx context.Context, tenantID string, year int, month time.Month) ([]reservations.DayOff, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, day_off_at, created_at
		FROM day_offs
		WHERE tenant_id = $1
		  AND day_off_at >= $2 AND day_off_at < $3
		ORDER BY day_off_at
	`, tenantID, first, first.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservations.DayOff
	for rows.Next() {
		var d reservations.DayOff
		if err := rows.Scan(&d.ID, &d.TenantID, &d.DayOffAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *ReservationsRepo) DayOffExists(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM day_offs WHERE tenant_id = $1 AND day_off_at = $2::date
		)
	`, tenantID, date.UTC().Format("2006-01-02")).Scan(&ok)
	return ok, err
}

func (r *ReservationsRepo) CreateDayOff(ctx context.Context, d reservations.DayOff) (reservations.DayOff, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO day_offs (id, tenant_id, day_off_at, created_at)
		VALUES ($1,$2,$3::date,$4)
	`, d.ID, d.TenantID, d.DayOffAt.UTC().Format("2006-01-02"), d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return reservations.DayOff{}, reservations.ErrDayOffExists
		}
		return reservations.DayOff{}, err
	}
	return d, nil
}

func (r *ReservationsRepo) DeleteDayOff(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM day_offs WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return reservations.ErrDayOffNotFound
	}
	return nil
}

func (r *ReservationsRepo) ListSpecialDays(ctx context.Context, year int, month time.Month) ([]reservations.SpecialDay, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, special_day_at
		FROM korea_special_days
		WHERE special_day_at >= $1 AND special_day_at < $2
		ORDER BY special_day_at
	`, first, first.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservations.SpecialDay
	for rows.Next() {
		var sd reservations.SpecialDay
		if err := rows.Scan(&sd.ID, &sd.Name, &sd.SpecialDayAt); err != nil {
			return nil, err
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}
