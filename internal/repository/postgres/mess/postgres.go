package mess

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	messdomain "mess-manager-go/internal/domain/mess"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(messdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetMess(ctx context.Context, messID string) (*messdomain.Mess, error) {
	var m messdomain.Mess
	if err := r.db.WithContext(ctx).Where("id = ?", messID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, messdomain.ErrMessNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetDocument assembles the full wire document for one mess from its
// relational rows. Defaults are applied here: a member with no meal rows
// gets an empty meals map, never nil.
func (r *PostgresRepository) GetDocument(ctx context.Context, messID string) (*messdomain.Document, error) {
	m, err := r.GetMess(ctx, messID)
	if err != nil {
		return nil, err
	}

	var members []messdomain.Member
	if err := r.db.WithContext(ctx).
		Where("mess_id = ?", messID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}

	var meals []messdomain.MealEntry
	if err := r.db.WithContext(ctx).
		Where("mess_id = ?", messID).
		Find(&meals).Error; err != nil {
		return nil, err
	}

	var expenses []messdomain.Expense
	if err := r.db.WithContext(ctx).
		Where("mess_id = ?", messID).
		Order("date asc").
		Find(&expenses).Error; err != nil {
		return nil, err
	}

	doc := &messdomain.Document{
		Name:     m.Name,
		AdminUID: m.AdminUID,
		JoinKey:  m.JoinKey,
		Members:  make(map[string]messdomain.MemberDoc, len(members)),
		Expenses: make([]messdomain.ExpenseDoc, 0, len(expenses)),
	}

	for _, member := range members {
		doc.Members[member.UserID] = messdomain.MemberDoc{
			Name:    member.Name,
			Deposit: member.Deposit,
			Meals:   make(map[string]int),
		}
	}
	for _, entry := range meals {
		member, ok := doc.Members[entry.UserID]
		if !ok {
			continue
		}
		member.Meals[messdomain.MealKey(entry.Date, entry.Slot)] = entry.Count
		doc.Members[entry.UserID] = member
	}
	for _, expense := range expenses {
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

func (r *PostgresRepository) CreateMess(ctx context.Context, m *messdomain.Mess) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, messID, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&messdomain.Mess{}).
		Where("id = ?", messID).
		Update("admin_uid", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return messdomain.ErrMessNotFound
	}
	return nil
}

func (r *PostgresRepository) IsMessIDTaken(ctx context.Context, messID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&messdomain.Mess{}).
		Where("id = ?", messID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) GetMember(ctx context.Context, messID, userID string) (*messdomain.Member, error) {
	var member messdomain.Member
	err := r.db.WithContext(ctx).
		Where("mess_id = ? AND user_id = ?", messID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, messdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *messdomain.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresRepository) AddDeposit(ctx context.Context, messID, userID string, amount float64) error {
	result := r.db.WithContext(ctx).
		Model(&messdomain.Member{}).
		Where("mess_id = ? AND user_id = ?", messID, userID).
		Update("deposit", gorm.Expr("deposit + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return messdomain.ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) UpsertMeal(ctx context.Context, entry *messdomain.MealEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "mess_id"}, {Name: "user_id"}, {Name: "date"}, {Name: "slot"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"count"}),
		}).
		Create(entry).Error
}

func (r *PostgresRepository) AddExpenses(ctx context.Context, messID string, expenses []messdomain.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&expenses).Error
}
