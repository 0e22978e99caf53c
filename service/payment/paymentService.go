package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AndriZhok/Library-Service-Project/model"
	striperepo "github.com/AndriZhok/Library-Service-Project/repository/stripe"
	telegramrepo "github.com/AndriZhok/Library-Service-Project/repository/telegram"
)

type ErrCode string

const (
	ErrBadSignature ErrCode = "BAD_SIGNATURE"
	ErrNotFound     ErrCode = "NOT_FOUND"
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

// WebhookResult says what a verified provider event did.
type WebhookResult string

const (
	// ResultConfirmed means a pending payment transitioned to paid.
	ResultConfirmed WebhookResult = "CONFIRMED"
	// ResultUnhandled acknowledges an event that changed nothing: an unknown
	// session, an already-paid payment, or an event type this service
	// ignores. Providers resend events; none of these are errors.
	ResultUnhandled WebhookResult = "UNHANDLED"
)

type Repo interface {
	FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Payment, error)
	DetailForUser(ctx context.Context, id, userID int64) (*model.Payment, error)
}

type Borrowings interface {
	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
}

type Service interface {
	// HandleWebhook verifies the provider signature, then reconciles the
	// referenced payment. Verification failure is the only error a caller
	// should surface as a rejection.
	HandleWebhook(ctx context.Context, sigHeader string, raw []byte) (WebhookResult, error)

	// Listing is always scoped to the caller's own borrowings.
	List(ctx context.Context, userID int64) ([]model.Payment, error)
	Detail(ctx context.Context, id, userID int64) (*model.Payment, error)
}

type service struct {
	db  *sql.DB
	r   Repo
	br  Borrowings
	x   striperepo.Repo
	n   telegramrepo.Notifier
	log *slog.Logger
}

func New(db *sql.DB, r Repo, br Borrowings, x striperepo.Repo, n telegramrepo.Notifier, log *slog.Logger) Service {
	return &service{db: db, r: r, br: br, x: x, n: n, log: log}
}

func (s *service) HandleWebhook(ctx context.Context, sigHeader string, raw []byte) (WebhookResult, error) {
	ev, err := s.x.VerifyAndParseWebhook(sigHeader, raw)
	if err != nil {
		s.log.Warn("webhook rejected", "err", err)
		return "", makeErr(ErrBadSignature)
	}

	if ev.Type != "checkout.session.completed" || ev.SessionID == "" {
		return ResultUnhandled, nil
	}

	p, err := s.r.FindBySessionID(ctx, ev.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown session: acknowledged, nothing to reconcile.
			s.log.Info("webhook for unknown session", "session_id", ev.SessionID)
			return ResultUnhandled, nil
		}
		return "", err
	}
	if p.Status == model.PaymentPaid {
		return ResultUnhandled, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	changed, err := s.r.MarkPaid(ctx, tx, p.ID)
	if err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	if !changed {
		// Lost the race to another delivery of the same event.
		return ResultUnhandled, nil
	}

	title := s.bookTitle(ctx, p.BorrowingID)
	s.notify(fmt.Sprintf("Payment confirmed for %q", title))
	return ResultConfirmed, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]model.Payment, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) Detail(ctx context.Context, id, userID int64) (*model.Payment, error) {
	p, err := s.r.DetailForUser(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return p, err
}

func (s *service) bookTitle(ctx context.Context, borrowingID int64) string {
	b, err := s.br.Detail(ctx, borrowingID)
	if err != nil {
		s.log.Warn("borrowing lookup for notification failed", "borrowing_id", borrowingID, "err", err)
		return "borrowing"
	}
	return b.BookTitle
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
