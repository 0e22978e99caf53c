package booksvc

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AndriZhok/Library-Service-Project/model"
	bookrepo "github.com/AndriZhok/Library-Service-Project/repository/book"
)

var (
	ErrBadInput = errors.New("bad input")
	ErrNotFound = errors.New("book not found")
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type Service interface {
	Create(ctx context.Context, b model.Book) (int64, error)
	Update(ctx context.Context, b model.Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func validateBook(b model.Book) error {
	if b.Title == "" || b.Author == "" {
		return ErrBadInput
	}
	if b.Cover != model.CoverHard && b.Cover != model.CoverSoft {
		return ErrBadInput
	}
	if b.Inventory < 1 || b.DailyFee <= 0 {
		return ErrBadInput
	}
	return nil
}

// mapConstraintErr narrows schema rejections to ErrBadInput. The table
// carries unique and check constraints; both mean the caller sent
// something the schema rejects.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgErr.Code == pgerrcode.UniqueViolation || pgErr.Code == pgerrcode.CheckViolation) {
		return ErrBadInput
	}
	return err
}

func (s *service) Create(ctx context.Context, b model.Book) (int64, error) {
	if err := validateBook(b); err != nil {
		return 0, err
	}
	id, err := s.r.Create(ctx, &b)
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	return id, nil
}

func (s *service) Update(ctx context.Context, b model.Book) error {
	if err := validateBook(b); err != nil {
		return err
	}
	err := s.r.Update(ctx, &b)
	if errors.Is(err, bookrepo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.r.Delete(ctx, id)
	if errors.Is(err, bookrepo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Detail(ctx, id)
	if errors.Is(err, bookrepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// DurationDays is the signed calendar-day difference between two dates.
func DurationDays(from, to time.Time) int64 {
	f := from.Truncate(24 * time.Hour)
	t := to.Truncate(24 * time.Hour)
	return int64(t.Sub(f).Hours() / 24)
}

// PriceForDuration is fee per day times the signed day count. Zero and
// negative durations pass through unclamped; callers own that contract.
func PriceForDuration(dailyFee float64, days int64) float64 {
	return dailyFee * float64(days)
}
