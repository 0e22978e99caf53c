package borrowingsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AndriZhok/Library-Service-Project/model"
	bookrepo "github.com/AndriZhok/Library-Service-Project/repository/book"
	borrowingrepo "github.com/AndriZhok/Library-Service-Project/repository/borrowing"
	striperepo "github.com/AndriZhok/Library-Service-Project/repository/stripe"
	telegramrepo "github.com/AndriZhok/Library-Service-Project/repository/telegram"
	booksvc "github.com/AndriZhok/Library-Service-Project/service/book"
	"github.com/AndriZhok/Library-Service-Project/service/policy"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrOutOfStock      ErrCode = "OUT_OF_STOCK"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrMissingPrice    ErrCode = "MISSING_PRICE"
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrProvider        ErrCode = "PROVIDER_FAILED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type Created struct {
	Borrowing  *model.Borrowing
	PaymentURL string
}

type ListQuery struct {
	UserID   *int64
	IsActive *bool
}

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, b *model.Borrowing) (int64, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Borrowing, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error
	List(ctx context.Context, f borrowingrepo.ListFilter) ([]model.Borrowing, error)
	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
}

type Books interface {
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Reserve(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	Release(ctx context.Context, tx *sql.Tx, bookID int64) error
}

type Payments interface {
	Insert(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error)
}

type Service interface {
	// Create reserves a copy, persists the borrowing and opens a checkout
	// session for its price, all-or-nothing.
	Create(ctx context.Context, p policy.Principal, bookID int64, borrowDate, expectedReturnDate time.Time) (*Created, error)

	// Return marks an active borrowing returned and releases its copy in one
	// transaction. An overdue return also opens a fine payment, best-effort.
	Return(ctx context.Context, p policy.Principal, borrowingID int64, actualReturnDate time.Time) (*model.Borrowing, error)

	List(ctx context.Context, p policy.Principal, q ListQuery) ([]model.Borrowing, error)
	Detail(ctx context.Context, p policy.Principal, id int64) (*model.Borrowing, error)
}

// ----- Service implementation -----

type Config struct {
	FrontendURL    string
	FineMultiplier float64
}

type service struct {
	db    *sql.DB
	r     Repo
	books Books
	pays  Payments
	x     striperepo.Repo
	n     telegramrepo.Notifier
	cfg   Config
	log   *slog.Logger
}

func New(db *sql.DB, r Repo, books Books, pays Payments, x striperepo.Repo, n telegramrepo.Notifier, cfg Config, log *slog.Logger) Service {
	if cfg.FineMultiplier <= 0 {
		cfg.FineMultiplier = 2
	}
	return &service{db: db, r: r, books: books, pays: pays, x: x, n: n, cfg: cfg, log: log}
}

func (s *service) Create(ctx context.Context, p policy.Principal, bookID int64, borrowDate, expectedReturnDate time.Time) (*Created, error) {
	book, err := s.books.Detail(ctx, bookID)
	if err != nil {
		if errors.Is(err, bookrepo.ErrNotFound) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	if book.DailyFee <= 0 {
		return nil, makeErr(ErrMissingPrice)
	}

	// Fast fail; the conditional decrement inside the transaction is the
	// authoritative check.
	if book.Inventory <= 0 {
		return nil, makeErr(ErrOutOfStock)
	}

	days := booksvc.DurationDays(borrowDate, expectedReturnDate)
	total := booksvc.PriceForDuration(book.DailyFee, days)

	sess, err := s.openSession(ctx, book.Title, total, fmt.Sprintf("borrowing:%d:book:%d", p.UserID, bookID))
	if err != nil {
		s.log.Error("checkout session create failed", "book_id", bookID, "err", err)
		return nil, makeErr(ErrProvider)
	}

	b := &model.Borrowing{
		UserID:             p.UserID,
		BookID:             bookID,
		BookTitle:          book.Title,
		BorrowDate:         borrowDate,
		ExpectedReturnDate: expectedReturnDate,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	reserved, err := s.books.Reserve(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		err = makeErr(ErrOutOfStock)
		return nil, err
	}

	b.ID, err = s.r.Insert(ctx, tx, b)
	if err != nil {
		return nil, err
	}

	if _, err = s.pays.Insert(ctx, tx, &model.Payment{
		BorrowingID: b.ID,
		Status:      model.PaymentPending,
		Type:        model.TypePayment,
		SessionID:   sess.SessionID,
		SessionURL:  sess.SessionURL,
		MoneyToPay:  total,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.notify(fmt.Sprintf("New borrowing: %q, expected back %s", book.Title, expectedReturnDate.Format("2006-01-02")))
	return &Created{Borrowing: b, PaymentURL: sess.SessionURL}, nil
}

func (s *service) Return(ctx context.Context, p policy.Principal, borrowingID int64, actualReturnDate time.Time) (*model.Borrowing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.r.GetForUpdate(ctx, tx, borrowingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = makeErr(ErrNotFound)
		}
		return nil, err
	}
	if b.UserID != p.UserID && !policy.Allow(policy.OpBorrowingActOnOther, p) {
		err = makeErr(ErrForbidden)
		return nil, err
	}
	if b.ActualReturnDate != nil {
		err = makeErr(ErrAlreadyReturned)
		return nil, err
	}

	if err = s.r.MarkReturned(ctx, tx, borrowingID, actualReturnDate); err != nil {
		return nil, err
	}
	if err = s.books.Release(ctx, tx, b.BookID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	b.ActualReturnDate = &actualReturnDate

	book, berr := s.books.Detail(ctx, b.BookID)
	if berr != nil {
		s.log.Warn("book lookup after return failed", "book_id", b.BookID, "err", berr)
		return b, nil
	}

	if actualReturnDate.After(b.ExpectedReturnDate) {
		s.openFine(ctx, b, book)
	}

	s.notify(fmt.Sprintf("Borrowing returned: %q", book.Title))
	return b, nil
}

// openFine opens a FINE payment for an overdue return. The return has already
// committed; a failure here is logged and left for a later retry sweep.
func (s *service) openFine(ctx context.Context, b *model.Borrowing, book *model.Book) {
	overdue := booksvc.DurationDays(b.ExpectedReturnDate, *b.ActualReturnDate)
	amount := booksvc.PriceForDuration(book.DailyFee, overdue) * s.cfg.FineMultiplier

	sess, err := s.openSession(ctx, book.Title+" (overdue fine)", amount, fmt.Sprintf("fine:%d", b.ID))
	if err != nil {
		s.log.Error("fine session create failed", "borrowing_id", b.ID, "err", err)
		return
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("fine payment tx failed", "borrowing_id", b.ID, "err", err)
		return
	}
	if _, err := s.pays.Insert(ctx, tx, &model.Payment{
		BorrowingID: b.ID,
		Status:      model.PaymentPending,
		Type:        model.TypeFine,
		SessionID:   sess.SessionID,
		SessionURL:  sess.SessionURL,
		MoneyToPay:  amount,
	}); err != nil {
		_ = tx.Rollback()
		s.log.Error("fine payment insert failed", "borrowing_id", b.ID, "err", err)
		return
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("fine payment commit failed", "borrowing_id", b.ID, "err", err)
	}
}

func (s *service) List(ctx context.Context, p policy.Principal, q ListQuery) ([]model.Borrowing, error) {
	f := borrowingrepo.ListFilter{IsActive: q.IsActive}
	if policy.Allow(policy.OpBorrowingFilterAnyUser, p) {
		f.UserID = q.UserID
	} else {
		// Access scoping: whatever filter was asked for, non-staff only
		// ever see their own rows.
		uid := p.UserID
		f.UserID = &uid
	}
	return s.r.List(ctx, f)
}

func (s *service) Detail(ctx context.Context, p policy.Principal, id int64) (*model.Borrowing, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	// Out-of-scope rows read as absent rather than forbidden.
	if b.UserID != p.UserID && !policy.Allow(policy.OpBorrowingActOnOther, p) {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) openSession(ctx context.Context, productName string, amount float64, ref string) (*striperepo.CreateSessionResp, error) {
	return s.x.CreateCheckoutSession(ctx, striperepo.CreateSessionReq{
		AmountCents:       int64(amount * 100),
		Currency:          "usd",
		ProductName:       productName,
		SuccessURL:        s.cfg.FrontendURL + "/success/",
		CancelURL:         s.cfg.FrontendURL + "/cancel/",
		ClientReferenceID: ref,
	})
}

func (s *service) notify(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.n.Notify(ctx, text); err != nil {
			s.log.Warn("notification failed", "err", err)
		}
	}()
}
