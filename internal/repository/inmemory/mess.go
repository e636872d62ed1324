// Package inmemory holds mutex-guarded repository implementations used by
// the memory backend and by handler tests. Transactions are copy-on-write:
// mutations run against a clone of the state and commit only on success, so
// a failed mutation leaves the stored document untouched.
package inmemory

import (
	"context"
	"sync"
	"time"

	messdomain "mess-manager-go/internal/domain/mess"
)

type mealKey struct {
	userID string
	date   string
	slot   string
}

type messState struct {
	messes   map[string]messdomain.Mess
	members  map[string]map[string]messdomain.Member
	meals    map[string]map[mealKey]int
	expenses map[string][]messdomain.Expense
}

func newMessState() *messState {
	return &messState{
		messes:   make(map[string]messdomain.Mess),
		members:  make(map[string]map[string]messdomain.Member),
		meals:    make(map[string]map[mealKey]int),
		expenses: make(map[string][]messdomain.Expense),
	}
}

func (s *messState) clone() *messState {
	copied := newMessState()
	for id, m := range s.messes {
		copied.messes[id] = m
	}
	for id, members := range s.members {
		inner := make(map[string]messdomain.Member, len(members))
		for userID, member := range members {
			inner[userID] = member
		}
		copied.members[id] = inner
	}
	for id, meals := range s.meals {
		inner := make(map[mealKey]int, len(meals))
		for key, count := range meals {
			inner[key] = count
		}
		copied.meals[id] = inner
	}
	for id, expenses := range s.expenses {
		copied.expenses[id] = append([]messdomain.Expense(nil), expenses...)
	}
	return copied
}

type MessRepository struct {
	mu    sync.Mutex
	state *messState
}

func NewMessRepository() *MessRepository {
	return &MessRepository{state: newMessState()}
}

func (r *MessRepository) Transaction(ctx context.Context, fn func(messdomain.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.state.clone()
	if err := fn(&messTx{state: work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *MessRepository) GetMess(ctx context.Context, messID string) (*messdomain.Mess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&messTx{state: r.state}).GetMess(ctx, messID)
}

func (r *MessRepository) GetDocument(ctx context.Context, messID string) (*messdomain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&messTx{state: r.state}).GetDocument(ctx, messID)
}

func (r *MessRepository) CreateMess(ctx context.Context, m *messdomain.Mess) error {
	return r.Transaction(ctx, func(tx messdomain.Repository) error {
		return tx.CreateMess(ctx, m)
	})
}

func (r *MessRepository) SetAdmin(ctx context.Context, messID, userID string) error {
	return r.Transaction(ctx, func(tx messdomain.Repository) error {
		return tx.SetAdmin(ctx, messID, userID)
	})
}

func (r *MessRepository) IsMessIDTaken(ctx context.Context, messID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.messes[messID]
	return ok, nil
}

func (r *MessRepository) GetMember(ctx context.Context, messID, userID string) (*messdomain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&messTx{state: r.state}).GetMember(ctx, messID, userID)
}

func (r *MessRepository) AddMember(ctx context.Context, member *messdomain.Member) error {
	return r.Transaction(ctx, func(tx messdomain.Repository) error {
		return tx.AddMember(ctx, member)
	})
}

func (r *MessRepository) AddDeposit(ctx context.Context, messID, userID string, amount float64) error {
	return r.Transaction(ctx, func(tx messdomain.Repository) error {
		return tx.AddDeposit(ctx, messID, userID, amount)
	})
}

func (r *MessRepository) UpsertMeal(ctx context.Context, entry *messdomain.MealEntry) error {
	return r.Transaction(ctx, func(tx messdomain.Repository) error {
		return tx.UpsertMeal(ctx, entry)
	})
}

func (r *MessRepository) AddExpenses(ctx context.Context, messID string, expenses []messdomain.Expense) error {
	return r.Transaction(ctx, func(tx messdomain.Repository) error {
		return tx.AddExpenses(ctx, messID, expenses)
	})
}

// messTx operates on one state snapshot without locking; the outer
// repository holds the mutex for the duration of the transaction.
type messTx struct {
	state *messState
}

func (t *messTx) Transaction(ctx context.Context, fn func(messdomain.Repository) error) error {
	return fn(t)
}

func (t *messTx) GetMess(ctx context.Context, messID string) (*messdomain.Mess, error) {
	m, ok := t.state.messes[messID]
	if !ok {
		return nil, messdomain.ErrMessNotFound
	}
	return &m, nil
}

func (t *messTx) GetDocument(ctx context.Context, messID string) (*messdomain.Document, error) {
	m, ok := t.state.messes[messID]
	if !ok {
		return nil, messdomain.ErrMessNotFound
	}

	doc := &messdomain.Document{
		Name:     m.Name,
		AdminUID: m.AdminUID,
		JoinKey:  m.JoinKey,
		Members:  make(map[string]messdomain.MemberDoc),
		Expenses: make([]messdomain.ExpenseDoc, 0, len(t.state.expenses[messID])),
	}

	for userID, member := range t.state.members[messID] {
		doc.Members[userID] = messdomain.MemberDoc{
			Name:    member.Name,
			Deposit: member.Deposit,
			Meals:   make(map[string]int),
		}
	}
	for key, count := range t.state.meals[messID] {
		member, ok := doc.Members[key.userID]
		if !ok {
			continue
		}
		member.Meals[messdomain.MealKey(key.date, key.slot)] = count
		doc.Members[key.userID] = member
	}
	for _, expense := range t.state.expenses[messID] {
		doc.Expenses = append(doc.Expenses, messdomain.ExpenseDoc{
			ID:          expense.ID,
			Description: expense.Description,
			Amount:      expense.Amount,
			Date:        expense.Date,
			AddedBy:     expense.AddedBy,
		})
	}

	return doc, nil
}

func (t *messTx) CreateMess(ctx context.Context, m *messdomain.Mess) error {
	if _, ok := t.state.messes[m.ID]; ok {
		return messdomain.ErrMessIDTaken
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = m.CreatedAt
	t.state.messes[m.ID] = *m
	return nil
}

func (t *messTx) SetAdmin(ctx context.Context, messID, userID string) error {
	m, ok := t.state.messes[messID]
	if !ok {
		return messdomain.ErrMessNotFound
	}
	m.AdminUID = userID
	m.UpdatedAt = time.Now().UTC()
	t.state.messes[messID] = m
	return nil
}

func (t *messTx) IsMessIDTaken(ctx context.Context, messID string) (bool, error) {
	_, ok := t.state.messes[messID]
	return ok, nil
}

func (t *messTx) GetMember(ctx context.Context, messID, userID string) (*messdomain.Member, error) {
	member, ok := t.state.members[messID][userID]
	if !ok {
		return nil, messdomain.ErrMemberNotFound
	}
	return &member, nil
}

func (t *messTx) AddMember(ctx context.Context, member *messdomain.Member) error {
	if t.state.members[member.MessID] == nil {
		t.state.members[member.MessID] = make(map[string]messdomain.Member)
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	t.state.members[member.MessID][member.UserID] = *member
	return nil
}

func (t *messTx) AddDeposit(ctx context.Context, messID, userID string, amount float64) error {
	member, ok := t.state.members[messID][userID]
	if !ok {
		return messdomain.ErrMemberNotFound
	}
	member.Deposit += amount
	t.state.members[messID][userID] = member
	return nil
}

func (t *messTx) UpsertMeal(ctx context.Context, entry *messdomain.MealEntry) error {
	if _, ok := t.state.messes[entry.MessID]; !ok {
		return messdomain.ErrMessNotFound
	}
	if t.state.meals[entry.MessID] == nil {
		t.state.meals[entry.MessID] = make(map[mealKey]int)
	}
	t.state.meals[entry.MessID][mealKey{entry.UserID, entry.Date, entry.Slot}] = entry.Count
	return nil
}

func (t *messTx) AddExpenses(ctx context.Context, messID string, expenses []messdomain.Expense) error {
	if _, ok := t.state.messes[messID]; !ok {
		return messdomain.ErrMessNotFound
	}
	t.state.expenses[messID] = append(t.state.expenses[messID], expenses...)
	return nil
}
