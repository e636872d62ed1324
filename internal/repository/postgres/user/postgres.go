package user

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	userdomain "mess-manager-go/internal/domain/user"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u *userdomain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return userdomain.ErrEmailExists
	}
	return err
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	var u userdomain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	var u userdomain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
