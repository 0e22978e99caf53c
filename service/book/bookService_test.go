// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AndriZhok/Library-Service-Project/model"
	bookrepo "github.com/AndriZhok/Library-Service-Project/repository/book"
	booksvc "github.com/AndriZhok/Library-Service-Project/service/book"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) (int64, error)
	updateFn func(ctx context.Context, b *model.Book) error
	deleteFn func(ctx context.Context, id int64) error
	listFn   func(ctx context.Context) ([]model.Book, error)
	detailFn func(ctx context.Context, id int64) (*model.Book, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) (int64, error) {
	return m.createFn(ctx, b)
}
func (m *repoMock) Update(ctx context.Context, b *model.Book) error { return m.updateFn(ctx, b) }
func (m *repoMock) Delete(ctx context.Context, id int64) error      { return m.deleteFn(ctx, id) }
func (m *repoMock) List(ctx context.Context) ([]model.Book, error) { return m.listFn(ctx) }
func (m *repoMock) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return m.detailFn(ctx, id)
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	cases := []model.Book{
		{Title: "", Author: "a", Cover: model.CoverHard, Inventory: 1, DailyFee: 1},
		{Title: "t", Author: "", Cover: model.CoverHard, Inventory: 1, DailyFee: 1},
		{Title: "t", Author: "a", Cover: "SPIRAL", Inventory: 1, DailyFee: 1},
		{Title: "t", Author: "a", Cover: model.CoverSoft, Inventory: 0, DailyFee: 1},
		{Title: "t", Author: "a", Cover: model.CoverSoft, Inventory: 1, DailyFee: 0},
	}
	for i, b := range cases {
		if _, err := s.Create(context.Background(), b); !errors.Is(err, booksvc.ErrBadInput) {
			t.Fatalf("case %d: got %v, want ErrBadInput", i, err)
		}
	}
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) (int64, error) {
			if b.Title != "Kobzar" || b.Author != "Shevchenko" || b.Cover != model.CoverHard {
				return 0, errors.New("bad args")
			}
			return 42, nil
		},
	}
	s := booksvc.New(m)
	id, err := s.Create(context.Background(), model.Book{
		Title: "Kobzar", Author: "Shevchenko", Cover: model.CoverHard, Inventory: 3, DailyFee: 1.5,
	})
	if err != nil || id != 42 {
		t.Fatalf("got id=%v err=%v; want 42 nil", id, err)
	}
}

func TestUpdate_Success(t *testing.T) {
	var got *model.Book
	m := &repoMock{
		updateFn: func(ctx context.Context, b *model.Book) error {
			got = b
			return nil
		},
	}
	s := booksvc.New(m)
	err := s.Update(context.Background(), model.Book{
		ID: 7, Title: "Kobzar", Author: "Shevchenko", Cover: model.CoverSoft, Inventory: 9, DailyFee: 2.5,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got == nil || got.ID != 7 || got.Inventory != 9 || got.Cover != model.CoverSoft {
		t.Fatalf("repo saw %+v", got)
	}
}

func TestUpdate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	b := model.Book{ID: 7, Title: "t", Author: "a", Cover: "SPIRAL", Inventory: 1, DailyFee: 1}
	if err := s.Update(context.Background(), b); !errors.Is(err, booksvc.ErrBadInput) {
		t.Fatalf("got %v, want ErrBadInput", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	m := &repoMock{
		updateFn: func(ctx context.Context, b *model.Book) error { return bookrepo.ErrNotFound },
	}
	s := booksvc.New(m)
	b := model.Book{ID: 99, Title: "t", Author: "a", Cover: model.CoverHard, Inventory: 1, DailyFee: 1}
	if err := s.Update(context.Background(), b); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDelete_Success(t *testing.T) {
	var deleted int64
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	s := booksvc.New(m)
	if err := s.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("repo saw id=%d, want 7", deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) error { return bookrepo.ErrNotFound },
	}
	s := booksvc.New(m)
	if err := s.Delete(context.Background(), 99); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return nil, bookrepo.ErrNotFound
		},
	}
	s := booksvc.New(m)
	if _, err := s.Detail(context.Background(), 99); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context) ([]model.Book, error) { return nil, nil },
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id}, nil
		},
	}
	s := booksvc.New(m)
	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if b, err := s.Detail(context.Background(), 7); err != nil || b.ID != 7 {
		t.Fatalf("Detail got %v %v", b, err)
	}
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDurationDays(t *testing.T) {
	cases := []struct {
		from, to string
		want     int64
	}{
		{"2024-03-01", "2024-03-01", 0},
		{"2024-03-01", "2024-03-06", 5},
		{"2024-03-06", "2024-03-01", -5},
		{"2024-02-28", "2024-03-01", 2}, // leap year
	}
	for _, c := range cases {
		if got := booksvc.DurationDays(date(c.from), date(c.to)); got != c.want {
			t.Fatalf("DurationDays(%s, %s) = %d, want %d", c.from, c.to, got, c.want)
		}
	}
}

func TestPriceForDuration(t *testing.T) {
	if got := booksvc.PriceForDuration(10, 0); got != 0 {
		t.Fatalf("zero duration: got %v, want 0", got)
	}
	if got := booksvc.PriceForDuration(10, 5); got != 50 {
		t.Fatalf("5 days at 10: got %v, want 50", got)
	}
	// Negative durations pass through unclamped.
	if got := booksvc.PriceForDuration(10, -2); got != -20 {
		t.Fatalf("negative duration: got %v, want -20", got)
	}
}
