package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mung-manager/internal/domain/customers"
	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/pagination"
)

type CustomersRepo struct {
	db *sql.DB
}

func NewCustomersRepo(db *sql.DB) *CustomersRepo {
	return &CustomersRepo{db: db}
}

func (r *CustomersRepo) Create(ctx context.Context, c customers.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO customers (
			id, tenant_id, user_id,
			name, phone_number, memo,
			state, deleted_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		c.ID,
		c.TenantID,
		c.UserID,
		c.Name,
		c.PhoneNumber,
		c.Memo,
		string(c.Lifecycle.State),
		c.Lifecycle.DeletedAt,
		c.CreatedAt,
		c.UpdatedAt,
	); err != nil {
		return err
	}
	for _, p := range c.Pets {
		if err := upsertPet(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CustomersRepo) Update(ctx context.Context, c customers.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET
			user_id = $2,
			name = $3,
			phone_number = $4,
			memo = $5,
			state = $6,
			deleted_at = $7,
			updated_at = $8
		WHERE id = $1
	`,
		c.ID,
		c.UserID,
		c.Name,
		c.PhoneNumber,
		c.Memo,
		string(c.Lifecycle.State),
		c.Lifecycle.DeletedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customers.ErrNotFound
	}
	for _, p := range c.Pets {
		if err := upsertPet(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertPet(ctx context.Context, tx *sql.Tx, p customers.Pet) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO customer_pets (
			id, customer_id, name, state, deleted_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			state = EXCLUDED.state,
			deleted_at = EXCLUDED.deleted_at,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.CustomerID,
		p.Name,
		string(p.Lifecycle.State),
		p.Lifecycle.DeletedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *CustomersRepo) Get(ctx context.Context, tenantID, customerID string) (customers.Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, user_id, name, phone_number, memo,
		       state, deleted_at, created_at, updated_at
		FROM customers
		WHERE id = $1 AND tenant_id = $2
	`, customerID, tenantID)

	c, err := scanCustomer(row)
	if err != nil {
		return customers.Customer{}, err
	}
	pets, err := r.loadPets(ctx, []string{c.ID})
	if err != nil {
		return customers.Customer{}, err
	}
	c.Pets = pets[c.ID]
	return c, nil
}

func (r *CustomersRepo) Exists(ctx context.Context, tenantID, customerID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM customers WHERE id = $1 AND tenant_id = $2
		)
	`, customerID, tenantID).Scan(&ok)
	return ok, err
}

func (r *CustomersRepo) List(ctx context.Context, tenantID string, f customers.Filters, p pagination.Params) ([]customers.Customer, int, error) {
	where := []string{"c.tenant_id = $1"}
	args := []any{tenantID}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Name != "" {
		add("c.name ILIKE '%%' || $%d || '%%'", f.Name)
	}
	if f.PhoneNumber != "" {
		add("c.phone_number LIKE '%%' || $%d || '%%'", f.PhoneNumber)
	}
	if f.IsActive != nil {
		if *f.IsActive {
			add("c.state = $%d AND c.deleted_at IS NULL", string(lifecycle.StateActive))
		} else {
			add("c.state = $%d", string(lifecycle.StateInactive))
		}
	}
	if f.PetName != "" {
		add(`EXISTS (
			SELECT 1 FROM customer_pets cp
			WHERE cp.customer_id = c.id AND cp.deleted_at IS NULL
			  AND cp.name ILIKE '%%' || $%d || '%%'
		)`, f.PetName)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers c WHERE "+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.Limit, p.Offset)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.id, c.tenant_id, c.user_id, c.name, c.phone_number, c.memo,
		       c.state, c.deleted_at, c.created_at, c.updated_at
		FROM customers c
		WHERE %s
		ORDER BY c.created_at DESC, c.id
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		items []customers.Customer
		ids   []string
	)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	pets, err := r.loadPets(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Pets = pets[items[i].ID]
	}
	return items, total, nil
}

// loadPets fetches all pets, soft-deleted included, for the given
// customers.
func (r *CustomersRepo) loadPets(ctx context.Context, customerIDs []string) (map[string][]customers.Pet, error) {
	out := make(map[string][]customers.Pet, len(customerIDs))
	if len(customerIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(customerIDs))
	args := make([]any, len(customerIDs))
	for i, id := range customerIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, customer_id, name, state, deleted_at, created_at, updated_at
		FROM customer_pets
		WHERE customer_id IN (%s)
		ORDER BY created_at, id
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p     customers.Pet
			state string
		)
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Name, &state, &p.Lifecycle.DeletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Lifecycle.State = lifecycle.State(state)
		out[p.CustomerID] = append(out[p.CustomerID], p)
	}
	return out, rows.Err()
}

func scanCustomer(row rowScanner) (customers.Customer, error) {
	var (
		c     customers.Customer
		state string
	)
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.UserID,
		&c.Name,
		&c.PhoneNumber,
		&c.Memo,
		&state,
		&c.Lifecycle.DeletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return customers.Customer{}, customers.ErrNotFound
	}
	if err != nil {
		return customers.Customer{}, err
	}
	c.Lifecycle.State = lifecycle.State(state)
	return c, nil
}
