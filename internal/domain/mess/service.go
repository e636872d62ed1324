package mess

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateInput struct {
	MessID   string // optional; generated when empty
	Name     string
	JoinKey  string // optional; generated when empty
	UserID   string
	UserName string
}

type JoinInput struct {
	MessID         string
	JoinKey        string
	UserID         string
	UserName       string
	DefaultDeposit float64
}

type NewExpense struct {
	Description string
	Amount      float64
}

// Create makes a new mess with the creator as its sole member and admin.
// Client-supplied ids are honored after validation; otherwise both the mess
// id and the join key are generated server-side.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Mess, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fmt.Sprintf("%s's Mess", in.UserName)
	}

	messID := strings.ToUpper(strings.TrimSpace(in.MessID))
	if messID != "" && !ValidMessID(messID) {
		return nil, ErrInvalidMessID
	}

	joinKey := strings.TrimSpace(in.JoinKey)
	if joinKey != "" && !ValidJoinKey(joinKey) {
		return nil, ErrInvalidJoinKey
	}
	if joinKey == "" {
		generated, err := GenerateJoinKey()
		if err != nil {
			return nil, err
		}
		joinKey = generated
	}

	var result Mess
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		id, err := resolveMessID(ctx, tx, messID)
		if err != nil {
			return err
		}

		m := Mess{
			ID:       id,
			Name:     name,
			JoinKey:  joinKey,
			AdminUID: in.UserID,
		}
		if err := tx.CreateMess(ctx, &m); err != nil {
			return err
		}

		member := Member{
			MessID: m.ID,
			UserID: in.UserID,
			Name:   in.UserName,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Join admits a user into an existing mess after a case-insensitive join-key
// check. Joining twice is a no-op. A mess without an admin adopts the joining
// user as admin (bootstrap).
func (s *Service) Join(ctx context.Context, in JoinInput) (*Mess, error) {
	messID := strings.ToUpper(strings.TrimSpace(in.MessID))
	joinKey := strings.TrimSpace(in.JoinKey)

	var result Mess
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		m, err := tx.GetMess(ctx, messID)
		if err != nil {
			return err
		}

		if !strings.EqualFold(joinKey, m.JoinKey) {
			return ErrWrongJoinKey
		}

		if _, err := tx.GetMember(ctx, m.ID, in.UserID); err == nil {
			result = *m
			return nil // already a member, nothing to do
		} else if !errors.Is(err, ErrMemberNotFound) {
			return err
		}

		member := Member{
			MessID:  m.ID,
			UserID:  in.UserID,
			Name:    in.UserName,
			Deposit: math.Max(0, in.DefaultDeposit),
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		if m.AdminUID == "" {
			if err := tx.SetAdmin(ctx, m.ID, in.UserID); err != nil {
				return err
			}
			m.AdminUID = in.UserID
		}

		result = *m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// SetMeal writes exactly one meal slot for one member on one day. Counts are
// clamped to non-negative integers; the date key must be a well-formed
// "YYYY-MM-DD_{B|L|D}" key. Admin only.
func (s *Service) SetMeal(ctx context.Context, messID, actingUserID, memberID, dateKey string, count int) error {
	year, month, day, slot, err := ParseMealKey(dateKey)
	if err != nil {
		return err
	}
	if count < 0 {
		count = 0
	}
	messID = strings.ToUpper(strings.TrimSpace(messID))

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireAdmin(ctx, tx, messID, actingUserID); err != nil {
			return err
		}
		if _, err := tx.GetMember(ctx, messID, memberID); err != nil {
			return err
		}

		entry := MealEntry{
			MessID: messID,
			UserID: memberID,
			Date:   fmt.Sprintf("%04d-%02d-%02d", year, month, day),
			Slot:   slot,
			Count:  count,
		}
		return tx.UpsertMeal(ctx, &entry)
	})
}

// AddExpenses appends a batch of expenses, all or nothing. Each item gets a
// server-assigned id and creation timestamp. Admin only.
func (s *Service) AddExpenses(ctx context.Context, messID, actingUserID string, items []NewExpense) ([]Expense, error) {
	if len(items) == 0 {
		return nil, ErrEmptyDescription
	}
	messID = strings.ToUpper(strings.TrimSpace(messID))

	recordedAt := s.now().UnixMilli()
	expenses := make([]Expense, 0, len(items))
	for _, item := range items {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			return nil, ErrEmptyDescription
		}
		if !validAmount(item.Amount) {
			return nil, ErrInvalidAmount
		}
		expenses = append(expenses, Expense{
			ID:          uuid.NewString(),
			MessID:      messID,
			Description: description,
			Amount:      item.Amount,
			Date:        recordedAt,
			AddedBy:     actingUserID,
		})
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireAdmin(ctx, tx, messID, actingUserID); err != nil {
			return err
		}
		return tx.AddExpenses(ctx, messID, expenses)
	})
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

// AddDeposit increases one member's cumulative deposit. Deposits only ever
// grow; there is no withdrawal operation. Admin only.
func (s *Service) AddDeposit(ctx context.Context, messID, actingUserID, memberID string, amount float64) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	messID = strings.ToUpper(strings.TrimSpace(messID))

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireAdmin(ctx, tx, messID, actingUserID); err != nil {
			return err
		}
		if _, err := tx.GetMember(ctx, messID, memberID); err != nil {
			return err
		}
		return tx.AddDeposit(ctx, messID, memberID, amount)
	})
}

// Details returns the full mess document. The caller must be a member.
func (s *Service) Details(ctx context.Context, messID, userID string) (*Document, error) {
	messID = strings.ToUpper(strings.TrimSpace(messID))

	if _, err := s.repo.GetMess(ctx, messID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetMember(ctx, messID, userID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}

	doc, err := s.repo.GetDocument(ctx, messID)
	if err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

func requireAdmin(ctx context.Context, tx Repository, messID, userID string) error {
	m, err := tx.GetMess(ctx, messID)
	if err != nil {
		return err
	}
	if m.AdminUID != userID {
		return ErrNotAdmin
	}
	return nil
}

func resolveMessID(ctx context.Context, tx Repository, requested string) (string, error) {
	if requested != "" {
		taken, err := tx.IsMessIDTaken(ctx, requested)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrMessIDTaken
		}
		return requested, nil
	}

	for i := 0; i < generateAttempts; i++ {
		id, err := GenerateMessID()
		if err != nil {
			return "", err
		}
		taken, err := tx.IsMessIDTaken(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrIDGenerationFailed
}

func validAmount(amount float64) bool {
	return amount > 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
