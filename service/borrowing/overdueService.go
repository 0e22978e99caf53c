package borrowingsvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AndriZhok/Library-Service-Project/model"
	telegramrepo "github.com/AndriZhok/Library-Service-Project/repository/telegram"
)

type OverdueRepo interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.Borrowing, error)
}

// Checker reports overdue borrowings to the notifier. Run from a background
// ticker; it never mutates state.
type Checker interface {
	CheckOverdue(ctx context.Context) (int, error)
}

type checker struct {
	r   OverdueRepo
	n   telegramrepo.Notifier
	log *slog.Logger
}

func NewChecker(r OverdueRepo, n telegramrepo.Notifier, log *slog.Logger) Checker {
	return &checker{r: r, n: n, log: log}
}

func (c *checker) CheckOverdue(ctx context.Context) (int, error) {
	rows, err := c.r.ListOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		if err := c.n.Notify(ctx, "No borrowings overdue today!"); err != nil {
			c.log.Warn("overdue notification failed", "err", err)
		}
		return 0, nil
	}
	for _, b := range rows {
		text := fmt.Sprintf("Overdue: %q (borrowing %d), was due %s",
			b.BookTitle, b.ID, b.ExpectedReturnDate.Format("2006-01-02"))
		if err := c.n.Notify(ctx, text); err != nil {
			c.log.Warn("overdue notification failed", "borrowing_id", b.ID, "err", err)
		}
	}
	return len(rows), nil
}
