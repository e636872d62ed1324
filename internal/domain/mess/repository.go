package mess

import "context"

// Repository is the persistence boundary for one mess document. Every
// mutation runs inside Transaction so the read-modify-write on a single
// document is atomic; concurrent meal edits or expense appends never lose
// updates.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetMess(ctx context.Context, messID string) (*Mess, error)
	GetDocument(ctx context.Context, messID string) (*Document, error)
	CreateMess(ctx context.Context, m *Mess) error
	SetAdmin(ctx context.Context, messID, userID string) error
	IsMessIDTaken(ctx context.Context, messID string) (bool, error)

	GetMember(ctx context.Context, messID, userID string) (*Member, error)
	AddMember(ctx context.Context, member *Member) error
	AddDeposit(ctx context.Context, messID, userID string, amount float64) error

	UpsertMeal(ctx context.Context, entry *MealEntry) error
	AddExpenses(ctx context.Context, messID string, expenses []Expense) error
}
