package repository

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork groups the stores bound to a single transaction.
type UnitOfWork struct {
	Users *UserRepository
	Tasks *TaskRepository
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		Users: NewUserRepository(db),
		Tasks: NewTaskRepository(db),
	}
}

type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Do runs fn in one transaction: committed when fn returns nil, rolled back
// on error or panic.
func (t *Transactor) Do(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}
