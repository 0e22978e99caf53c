// repository/borrowing/repo.go
package borrowingrepo

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/AndriZhok/Library-Service-Project/model"
)

// ListFilter narrows List. UserID is enforced by the service for
// non-privileged callers, never trusted from the request directly.
type ListFilter struct {
	UserID   *int64
	IsActive *bool
}

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, b *model.Borrowing) (int64, error)

	// GetForUpdate locks the borrowing row for the rest of the transaction.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Borrowing, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error

	List(ctx context.Context, f ListFilter) ([]model.Borrowing, error)
	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.Borrowing, error)
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Borrowing) (int64, error) {
	const q = `
		INSERT INTO borrowings (user_id, book_id, borrow_date, expected_return_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, b.UserID, b.BookID, b.BorrowDate, b.ExpectedReturnDate).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Borrowing, error) {
	const q = `
		SELECT id, user_id, book_id, borrow_date, expected_return_date, actual_return_date
		FROM borrowings
		WHERE id = $1
		FOR UPDATE`
	var b model.Borrowing
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.BookID, &b.BorrowDate, &b.ExpectedReturnDate, &b.ActualReturnDate,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error {
	const q = `
		UPDATE borrowings
		SET actual_return_date = $2
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, returnedAt)
	return err
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]model.Borrowing, error) {
	q := `
		SELECT br.id, br.user_id, br.book_id, b.title, br.borrow_date,
		       br.expected_return_date, br.actual_return_date
		FROM borrowings br
		JOIN books b ON b.id = br.book_id`
	var (
		args  []any
		where []string
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, "br.user_id = $"+strconv.Itoa(len(args)))
	}
	if f.IsActive != nil {
		if *f.IsActive {
			where = append(where, "br.actual_return_date IS NULL")
		} else {
			where = append(where, "br.actual_return_date IS NOT NULL")
		}
	}
	for i, w := range where {
		if i == 0 {
			q += "\n\t\tWHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += "\n\t\tORDER BY br.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrowing
	for rows.Next() {
		var b model.Borrowing
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.BookID, &b.BookTitle, &b.BorrowDate,
			&b.ExpectedReturnDate, &b.ActualReturnDate,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Borrowing, error) {
	const q = `
		SELECT br.id, br.user_id, br.book_id, b.title, br.borrow_date,
		       br.expected_return_date, br.actual_return_date
		FROM borrowings br
		JOIN books b ON b.id = br.book_id
		WHERE br.id = $1`
	var b model.Borrowing
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.BookID, &b.BookTitle, &b.BorrowDate,
		&b.ExpectedReturnDate, &b.ActualReturnDate,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Borrowing, error) {
	const q = `
		SELECT br.id, br.user_id, br.book_id, b.title, br.borrow_date,
		       br.expected_return_date, br.actual_return_date
		FROM borrowings br
		JOIN books b ON b.id = br.book_id
		WHERE br.actual_return_date IS NULL
		AND br.expected_return_date < $1
		ORDER BY br.expected_return_date`
	rows, err := r.db.QueryContext(ctx, q, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrowing
	for rows.Next() {
		var b model.Borrowing
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.BookID, &b.BookTitle, &b.BorrowDate,
			&b.ExpectedReturnDate, &b.ActualReturnDate,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
