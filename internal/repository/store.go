package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nicoceron/nimble-backend/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type entityPtr[T any] interface {
	*T
	model.Entity
}

// Store is the CRUD contract shared by every entity table. The table is
// supplied by the caller; nothing is discovered at runtime.
type Store[T any, P entityPtr[T]] struct {
	db    *gorm.DB
	table string
}

func NewStore[T any, P entityPtr[T]](db *gorm.DB, table string) *Store[T, P] {
	return &Store[T, P]{db: db, table: table}
}

func (s *Store[T, P]) query(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

// FindByID returns (nil, nil) when no row has the id.
func (s *Store[T, P]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := s.query(ctx).Where("id = ?", id).Take(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s by id failed: %w", s.table, err)
	}
	return &entity, nil
}

func (s *Store[T, P]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := s.query(ctx).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list %s failed: %w", s.table, err)
	}
	return entities, nil
}

func (s *Store[T, P]) Create(ctx context.Context, entity *T) error {
	if err := s.query(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return s.translate("create", err)
	}
	return nil
}

// Update writes every mutable column of entity. created_at is create-only at
// the schema level and updated_at is stamped by gorm.
func (s *Store[T, P]) Update(ctx context.Context, entity *T) error {
	id := P(entity).PrimaryKey()
	if id == 0 {
		return fmt.Errorf("update %s failed: %w", s.table, ErrNotFound)
	}

	res := s.query(ctx).Model(entity).Select("*").Omit(clause.Associations).Updates(entity)
	if res.Error != nil {
		return s.translate("update", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// some drivers report zero affected rows for a no-op write
	var count int64
	if err := s.query(ctx).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("update %s failed: %w", s.table, err)
	}
	if count == 0 {
		return fmt.Errorf("update %s %d failed: %w", s.table, id, ErrNotFound)
	}
	return nil
}

// Remove deletes entity by its id. A missing row is not an error.
func (s *Store[T, P]) Remove(ctx context.Context, entity *T) error {
	return s.RemoveByID(ctx, P(entity).PrimaryKey())
}

func (s *Store[T, P]) RemoveByID(ctx context.Context, id uint) error {
	if id == 0 {
		return nil
	}
	if err := s.query(ctx).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("delete %s failed: %w", s.table, err)
	}
	return nil
}

func (s *Store[T, P]) translate(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s %s failed: %w: %w", op, s.table, ErrDuplicate, err)
	}
	return fmt.Errorf("%s %s failed: %w", op, s.table, err)
}
