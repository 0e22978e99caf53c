package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/AndriZhok/Library-Service-Project/model"
	striperepo "github.com/AndriZhok/Library-Service-Project/repository/stripe"
)

type repoMock struct {
	findFn   func(ctx context.Context, sessionID string) (*model.Payment, error)
	markFn   func(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	listFn   func(ctx context.Context, userID int64) ([]model.Payment, error)
	detailFn func(ctx context.Context, id, userID int64) (*model.Payment, error)
}

func (m *repoMock) FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error) {
	return m.findFn(ctx, sessionID)
}
func (m *repoMock) MarkPaid(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	return m.markFn(ctx, tx, id)
}
func (m *repoMock) ListByUser(ctx context.Context, userID int64) ([]model.Payment, error) {
	return m.listFn(ctx, userID)
}
func (m *repoMock) DetailForUser(ctx context.Context, id, userID int64) (*model.Payment, error) {
	return m.detailFn(ctx, id, userID)
}

type borrowingsMock struct{}

func (borrowingsMock) Detail(_ context.Context, id int64) (*model.Borrowing, error) {
	return &model.Borrowing{ID: id, BookTitle: "Kobzar"}, nil
}

type verifierMock struct {
	event *striperepo.CheckoutEvent
	err   error
}

func (m *verifierMock) CreateCheckoutSession(context.Context, striperepo.CreateSessionReq) (*striperepo.CreateSessionResp, error) {
	return nil, errors.New("not used")
}
func (m *verifierMock) VerifyAndParseWebhook(string, []byte) (*striperepo.CheckoutEvent, error) {
	return m.event, m.err
}

type notifierMock struct{ ch chan string }

func newNotifierMock() *notifierMock { return &notifierMock{ch: make(chan string, 8)} }

func (n *notifierMock) Notify(_ context.Context, text string) error {
	select {
	case n.ch <- text:
	default:
	}
	return nil
}

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(t *testing.T, r Repo, x striperepo.Repo) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, r, borrowingsMock{}, x, newNotifierMock(), testLog), mock
}

func TestWebhook_BadSignature(t *testing.T) {
	marked := 0
	r := &repoMock{
		markFn: func(_ context.Context, _ *sql.Tx, _ int64) (bool, error) { marked++; return true, nil },
	}
	x := &verifierMock{err: errors.New("signature mismatch")}
	s, mock := newService(t, r, x)

	_, err := s.HandleWebhook(context.Background(), "t=1,v1=bad", []byte(`{}`))
	require.Equal(t, ErrBadSignature, Code(err))
	// A rejected payload never touches any payment.
	require.Zero(t, marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_IgnoredEventType(t *testing.T) {
	x := &verifierMock{event: &striperepo.CheckoutEvent{EventID: "evt_1", Type: "invoice.created"}}
	s, mock := newService(t, &repoMock{}, x)

	res, err := s.HandleWebhook(context.Background(), "sig", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ResultUnhandled, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_UnknownSession(t *testing.T) {
	r := &repoMock{
		findFn: func(_ context.Context, _ string) (*model.Payment, error) { return nil, sql.ErrNoRows },
	}
	x := &verifierMock{event: &striperepo.CheckoutEvent{
		EventID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_unknown",
	}}
	s, mock := newService(t, r, x)

	res, err := s.HandleWebhook(context.Background(), "sig", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ResultUnhandled, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_ConfirmsPending(t *testing.T) {
	r := &repoMock{
		findFn: func(_ context.Context, sessionID string) (*model.Payment, error) {
			require.Equal(t, "cs_1", sessionID)
			return &model.Payment{ID: 3, BorrowingID: 101, Status: model.PaymentPending, SessionID: "cs_1"}, nil
		},
		markFn: func(_ context.Context, _ *sql.Tx, id int64) (bool, error) {
			require.Equal(t, int64(3), id)
			return true, nil
		},
	}
	x := &verifierMock{event: &striperepo.CheckoutEvent{
		EventID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_1",
	}}
	s, mock := newService(t, r, x)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := s.HandleWebhook(context.Background(), "sig", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ResultConfirmed, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_AlreadyPaid(t *testing.T) {
	marked := 0
	r := &repoMock{
		findFn: func(_ context.Context, _ string) (*model.Payment, error) {
			return &model.Payment{ID: 3, Status: model.PaymentPaid}, nil
		},
		markFn: func(_ context.Context, _ *sql.Tx, _ int64) (bool, error) { marked++; return true, nil },
	}
	x := &verifierMock{event: &striperepo.CheckoutEvent{
		EventID: "evt_2", Type: "checkout.session.completed", SessionID: "cs_1",
	}}
	s, mock := newService(t, r, x)

	res, err := s.HandleWebhook(context.Background(), "sig", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ResultUnhandled, res)
	require.Zero(t, marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_LostRaceIsUnhandled(t *testing.T) {
	r := &repoMock{
		findFn: func(_ context.Context, _ string) (*model.Payment, error) {
			return &model.Payment{ID: 3, Status: model.PaymentPending}, nil
		},
		// Another delivery of the same event won the guarded update.
		markFn: func(_ context.Context, _ *sql.Tx, _ int64) (bool, error) { return false, nil },
	}
	x := &verifierMock{event: &striperepo.CheckoutEvent{
		EventID: "evt_3", Type: "checkout.session.completed", SessionID: "cs_1",
	}}
	s, mock := newService(t, r, x)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := s.HandleWebhook(context.Background(), "sig", []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ResultUnhandled, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDetail_NotFoundForForeignPayment(t *testing.T) {
	r := &repoMock{
		detailFn: func(_ context.Context, _, _ int64) (*model.Payment, error) { return nil, sql.ErrNoRows },
	}
	s, _ := newService(t, r, &verifierMock{})

	_, err := s.Detail(context.Background(), 3, 8)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestList_PassesCallerID(t *testing.T) {
	r := &repoMock{
		listFn: func(_ context.Context, userID int64) ([]model.Payment, error) {
			require.Equal(t, int64(7), userID)
			return []model.Payment{{ID: 1}}, nil
		},
	}
	s, _ := newService(t, r, &verifierMock{})

	rows, err := s.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
