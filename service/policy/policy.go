// Package policy decides, per operation, whether a principal may perform a
// privileged action. It is transport-free so the rules can be tested without
// an HTTP harness.
package policy

// Principal is the resolved caller identity: an opaque user id plus the
// staff flag carried in the auth token.
type Principal struct {
	UserID  int64
	IsStaff bool
}

type Operation string

const (
	// Catalog writes are staff-only.
	OpBookCreate Operation = "book.create"
	OpBookUpdate Operation = "book.update"
	OpBookDelete Operation = "book.delete"

	// Filtering borrowings by an arbitrary user id is staff-only; everyone
	// else is scoped to their own rows.
	OpBorrowingFilterAnyUser Operation = "borrowing.filter_any_user"

	// Acting on another user's borrowing (view, return) is staff-only.
	OpBorrowingActOnOther Operation = "borrowing.act_on_other"
)

func Allow(op Operation, p Principal) bool {
	switch op {
	case OpBookCreate, OpBookUpdate, OpBookDelete,
		OpBorrowingFilterAnyUser, OpBorrowingActOnOther:
		return p.IsStaff
	default:
		return false
	}
}
