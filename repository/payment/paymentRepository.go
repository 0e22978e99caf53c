package paymentrepo

import (
	"context"
	"database/sql"

	"github.com/AndriZhok/Library-Service-Project/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error)

	FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error)
	// MarkPaid flips PENDING to PAID inside the caller's transaction and
	// reports whether a row actually changed. An already-paid payment is left
	// untouched, so a resent provider event is a no-op.
	MarkPaid(ctx context.Context, tx *sql.Tx, id int64) (bool, error)

	ListByUser(ctx context.Context, userID int64) ([]model.Payment, error)
	DetailForUser(ctx context.Context, id, userID int64) (*model.Payment, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error) {
	const q = `
INSERT INTO payments (borrowing_id, status, type, session_id, session_url, money_to_pay)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, q,
		p.BorrowingID, p.Status, p.Type, p.SessionID, p.SessionURL, p.MoneyToPay,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error) {
	const q = `
SELECT id, borrowing_id, status, type, session_id, session_url, money_to_pay, created_at
FROM payments
WHERE session_id=$1`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
		&p.ID, &p.BorrowingID, &p.Status, &p.Type, &p.SessionID, &p.SessionURL, &p.MoneyToPay, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) MarkPaid(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	const q = `
UPDATE payments
SET status = 'PAID'
WHERE id = $1
AND status = 'PENDING'`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Payment, error) {
	const q = `
SELECT p.id, p.borrowing_id, p.status, p.type, p.session_id, p.session_url, p.money_to_pay, p.created_at
FROM payments p
JOIN borrowings br ON br.id = p.borrowing_id
WHERE br.user_id=$1
ORDER BY p.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(
			&p.ID, &p.BorrowingID, &p.Status, &p.Type, &p.SessionID, &p.SessionURL, &p.MoneyToPay, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repo) DetailForUser(ctx context.Context, id, userID int64) (*model.Payment, error) {
	const q = `
SELECT p.id, p.borrowing_id, p.status, p.type, p.session_id, p.session_url, p.money_to_pay, p.created_at
FROM payments p
JOIN borrowings br ON br.id = p.borrowing_id
WHERE p.id=$1 AND br.user_id=$2`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, id, userID).Scan(
		&p.ID, &p.BorrowingID, &p.Status, &p.Type, &p.SessionID, &p.SessionURL, &p.MoneyToPay, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
