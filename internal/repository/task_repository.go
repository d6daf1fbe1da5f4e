package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nicoceron/nimble-backend/internal/model"
)

// taskOrder sorts by due date (undated last), then priority in declaration
// order, then id so ties are stable.
var taskOrder = buildTaskOrder()

func buildTaskOrder() string {
	var b strings.Builder
	b.WriteString("due_date IS NULL, due_date ASC, CASE priority")
	for _, p := range model.Priorities() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	fmt.Fprintf(&b, " ELSE %d END ASC, id ASC", len(model.Priorities()))
	return b.String()
}

type TaskRepository struct {
	*Store[model.Task, *model.Task]
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{Store: NewStore[model.Task](db, "tasks")}
}

func (r *TaskRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if err := r.query(ctx).Where("user_id = ?", userID).Order(taskOrder).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks by user failed: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByUserIDAndStatus(ctx context.Context, userID uint, status model.Status) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if err := r.query(ctx).Where("user_id = ? AND status = ?", userID, status).Order(taskOrder).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks by user and status failed: %w", err)
	}
	return tasks, nil
}
