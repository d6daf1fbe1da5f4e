package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nicoceron/nimble-backend/internal/model"
)

type UserRepository struct {
	*Store[model.User, *model.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Store: NewStore[model.User](db, "users")}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	if err := r.query(ctx).Where(column+" = ?", value).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by %s failed: %w", column, err)
	}
	return &user, nil
}
