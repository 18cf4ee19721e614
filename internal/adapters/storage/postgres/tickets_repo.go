package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/domain/tickets"
	"mung-manager/internal/pagination"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type TicketsRepo struct {
	db *sql.DB
}

func NewTicketsRepo(db *sql.DB) *TicketsRepo {
	return &TicketsRepo{db: db}
}

func (r *TicketsRepo) CreateTemplate(ctx context.Context, t tickets.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (
			id, tenant_id, ticket_type,
			usage_time, usage_count, usage_period_in_days_count, price,
			state, deleted_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		t.ID,
		t.TenantID,
		string(t.TicketType),
		t.UsageTime,
		t.UsageCount,
		t.UsagePeriodInDaysCount,
		t.Price,
		string(t.Lifecycle.State),
		t.Lifecycle.DeletedAt,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (r *TicketsRepo) UpdateTemplate(ctx context.Context, t tickets.Ticket) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET state = $2, deleted_at = $3, updated_at = $4
		WHERE id = $1
	`,
		t.ID,
		string(t.Lifecycle.State),
		t.Lifecycle.DeletedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return tickets.ErrNotFound
	}
	return nil
}

const ticketColumns = `
	id, tenant_id, ticket_type,
	usage_time, usage_count, usage_period_in_days_count, price,
	state, deleted_at, created_at, updated_at
`

func (r *TicketsRepo) GetTemplate(ctx context.Context, id string) (tickets.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE id = $1
	`, id)
	return scanTicket(row)
}

func (r *TicketsRepo) ListTemplates(ctx context.Context, tenantID string) ([]tickets.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tickets.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTicket(row rowScanner) (tickets.Ticket, error) {
	var (
		t     tickets.Ticket
		typ   string
		state string
	)
	err := row.Scan(
		&t.ID,
		&t.TenantID,
		&typ,
		&t.UsageTime,
		&t.UsageCount,
		&t.UsagePeriodInDaysCount,
		&t.Price,
		&state,
		&t.Lifecycle.DeletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return tickets.Ticket{}, tickets.ErrNotFound
	}
	if err != nil {
		return tickets.Ticket{}, err
	}
	t.TicketType = tickets.TicketType(typ)
	t.Lifecycle.State = lifecycle.State(state)
	return t, nil
}

func (r *TicketsRepo) Register(ctx context.Context, ct tickets.CustomerTicket, log tickets.RegistrationLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO customer_tickets (
			id, customer_id, ticket_id,
			total_count, used_count, expired_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		ct.ID,
		ct.CustomerID,
		ct.TicketID,
		ct.TotalCount,
		ct.UsedCount,
		ct.ExpiredAt,
		ct.CreatedAt,
		ct.UpdatedAt,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ticket_registration_logs (id, customer_ticket_id, created_at)
		VALUES ($1,$2,$3)
	`, log.ID, log.CustomerTicketID, log.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

const customerTicketColumns = `
	id, customer_id, ticket_id,
	total_count, used_count, expired_at,
	created_at, updated_at
`

func (r *TicketsRepo) GetCustomerTicket(ctx context.Context, id string) (tickets.CustomerTicket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+customerTicketColumns+` FROM customer_tickets WHERE id = $1
	`, id)
	return scanCustomerTicket(row)
}

func scanCustomerTicket(row rowScanner) (tickets.CustomerTicket, error) {
	var ct tickets.CustomerTicket
	err := row.Scan(
		&ct.ID,
		&ct.CustomerID,
		&ct.TicketID,
		&ct.TotalCount,
		&ct.UsedCount,
		&ct.ExpiredAt,
		&ct.CreatedAt,
		&ct.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return tickets.CustomerTicket{}, tickets.ErrNotFound
	}
	if err != nil {
		return tickets.CustomerTicket{}, err
	}
	return ct, nil
}

// Consume runs the log insert and the guarded balance update in one
// transaction. consumeTx is shared with the reservations repo so a booking
// and its consumption commit together.
func (r *TicketsRepo) Consume(ctx context.Context, customerTicketID, reservationID string, delta int, now time.Time) (tickets.UsageLog, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return tickets.UsageLog{}, err
	}
	defer tx.Rollback()

	log, err := consumeTx(ctx, tx, customerTicketID, reservationID, delta, now)
	if err != nil {
		return tickets.UsageLog{}, err
	}
	if err := tx.Commit(); err != nil {
		return tickets.UsageLog{}, err
	}
	return log, nil
}

func consumeTx(ctx context.Context, tx *sql.Tx, customerTicketID, reservationID string, delta int, now time.Time) (tickets.UsageLog, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ticket_usage_logs WHERE reservation_id = $1
		)
	`, reservationID).Scan(&exists); err != nil {
		return tickets.UsageLog{}, err
	}
	if exists {
		return tickets.UsageLog{}, tickets.ErrAlreadyConsumed
	}

	// The WHERE clause is the concurrency guard: of two racing consumers
	// only one can match the row.
	res, err := tx.ExecContext(ctx, `
		UPDATE customer_tickets
		SET used_count = used_count + $2, updated_at = $3
		WHERE id = $1 AND used_count + $2 <= total_count
	`, customerTicketID, delta, now)
	if err != nil {
		return tickets.UsageLog{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var found bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM customer_tickets WHERE id = $1)
		`, customerTicketID).Scan(&found); err != nil {
			return tickets.UsageLog{}, err
		}
		if !found {
			return tickets.UsageLog{}, tickets.ErrNotFound
		}
		return tickets.UsageLog{}, tickets.ErrInsufficientCount
	}

	log := tickets.UsageLog{
		ID:               uuid.NewString(),
		CustomerTicketID: customerTicketID,
		ReservationID:    reservationID,
		UsedCount:        delta,
		CreatedAt:        now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ticket_usage_logs (id, customer_ticket_id, reservation_id, used_count, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, log.ID, log.CustomerTicketID, log.ReservationID, log.UsedCount, log.CreatedAt); err != nil {
		// The unique index on reservation_id is the real guard; the EXISTS
		// check above only avoids a pointless balance update.
		if isUniqueViolation(err) {
			return tickets.UsageLog{}, tickets.ErrAlreadyConsumed
		}
		return tickets.UsageLog{}, err
	}
	return log, nil
}

func (r *TicketsRepo) ListActiveByCustomer(ctx context.Context, customerID string, now time.Time) ([]tickets.CustomerTicket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerTicketColumns+`
		FROM customer_tickets
		WHERE customer_id = $1
		  AND expired_at >= $2
		  AND used_count < total_count
		ORDER BY created_at, id
	`, customerID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tickets.CustomerTicket
	for rows.Next() {
		ct, err := scanCustomerTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *TicketsRepo) ListRegistrations(ctx context.Context, customerID string, p pagination.Params) ([]tickets.RegistrationEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ticket_registration_logs l
		JOIN customer_tickets ct ON ct.id = l.customer_ticket_id
		WHERE ct.customer_id = $1
	`, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			l.id, l.customer_ticket_id, l.created_at,
			ct.id, ct.customer_id, ct.ticket_id,
			ct.total_count, ct.used_count, ct.expired_at, ct.created_at, ct.updated_at,
			t.id, t.tenant_id, t.ticket_type,
			t.usage_time, t.usage_count, t.usage_period_in_days_count, t.price
		FROM ticket_registration_logs l
		JOIN customer_tickets ct ON ct.id = l.customer_ticket_id
		JOIN tickets t ON t.id = ct.ticket_id
		WHERE ct.customer_id = $1
		ORDER BY l.created_at DESC, l.id
		LIMIT $2 OFFSET $3
	`, customerID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []tickets.RegistrationEntry
	for rows.Next() {
		var (
			e   tickets.RegistrationEntry
			typ string
		)
		if err := rows.Scan(
			&e.Log.ID, &e.Log.CustomerTicketID, &e.Log.CreatedAt,
			&e.CustomerTicket.ID, &e.CustomerTicket.CustomerID, &e.CustomerTicket.TicketID,
			&e.CustomerTicket.TotalCount, &e.CustomerTicket.UsedCount, &e.CustomerTicket.ExpiredAt,
			&e.CustomerTicket.CreatedAt, &e.CustomerTicket.UpdatedAt,
			&e.Ticket.ID, &e.Ticket.TenantID, &typ,
			&e.Ticket.UsageTime, &e.Ticket.UsageCount, &e.Ticket.UsagePeriodInDaysCount, &e.Ticket.Price,
		); err != nil {
			return nil, 0, err
		}
		e.Ticket.TicketType = tickets.TicketType(typ)
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *TicketsRepo) ListUsages(ctx context.Context, customerID string, p pagination.Params) ([]tickets.UsageEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ticket_usage_logs l
		JOIN customer_tickets ct ON ct.id = l.customer_ticket_id
		WHERE ct.customer_id = $1
	`, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			l.id, l.customer_ticket_id, l.reservation_id, l.used_count, l.created_at,
			ct.id, ct.customer_id, ct.ticket_id,
			ct.total_count, ct.used_count, ct.expired_at, ct.created_at, ct.updated_at,
			t.id, t.tenant_id, t.ticket_type,
			t.usage_time, t.usage_count, t.usage_period_in_days_count, t.price,
			res.reserved_at, res.is_attended, res.status
		FROM ticket_usage_logs l
		JOIN customer_tickets ct ON ct.id = l.customer_ticket_id
		JOIN tickets t ON t.id = ct.ticket_id
		JOIN reservations res ON res.id = l.reservation_id
		WHERE ct.customer_id = $1
		ORDER BY l.created_at DESC, l.id
		LIMIT $2 OFFSET $3
	`, customerID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []tickets.UsageEntry
	for rows.Next() {
		var (
			e   tickets.UsageEntry
			typ string
		)
		if err := rows.Scan(
			&e.Log.ID, &e.Log.CustomerTicketID, &e.Log.ReservationID, &e.Log.UsedCount, &e.Log.CreatedAt,
			&e.CustomerTicket.ID, &e.CustomerTicket.CustomerID, &e.CustomerTicket.TicketID,
			&e.CustomerTicket.TotalCount, &e.CustomerTicket.UsedCount, &e.CustomerTicket.ExpiredAt,
			&e.CustomerTicket.CreatedAt, &e.CustomerTicket.UpdatedAt,
			&e.Ticket.ID, &e.Ticket.TenantID, &typ,
			&e.Ticket.UsageTime, &e.Ticket.UsageCount, &e.Ticket.UsagePeriodInDaysCount, &e.Ticket.Price,
			&e.ReservedAt, &e.IsAttended, &e.ReservationStatus,
		); err != nil {
			return nil, 0, err
		}
		e.Ticket.TicketType = tickets.TicketType(typ)
		out = append(out, e)
	}
	return out, total, rows.Err()
}
