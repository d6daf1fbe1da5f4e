package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPriority = errors.New("unknown task priority")
	ErrUnknownStatus   = errors.New("unknown task status")
)

// Priority is ordered by declaration: HIGH sorts before MEDIUM before LOW.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

var priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func Priorities() []Priority {
	out := make([]Priority, len(priorities))
	copy(out, priorities)
	return out
}

func ParsePriority(raw string) (Priority, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for _, p := range priorities {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, raw)
}

// Rank is the declaration index, or -1 for a value outside the set.
func (p Priority) Rank() int {
	for i, candidate := range priorities {
		if candidate == p {
			return i
		}
	}
	return -1
}

func (p Priority) Valid() bool { return p.Rank() >= 0 }

func (p Priority) String() string { return string(p) }

func (p Priority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPriority, string(p))
	}
	return string(p), nil
}

func (p *Priority) Scan(src any) error {
	raw, err := scanName(src)
	if err != nil {
		return fmt.Errorf("scan priority: %w", err)
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func ParseStatus(raw string) (Status, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for _, s := range statuses {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

func (s Status) Valid() bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, string(s))
	}
	return string(s), nil
}

func (s *Status) Scan(src any) error {
	raw, err := scanName(src)
	if err != nil {
		return fmt.Errorf("scan status: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func scanName(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", errors.New("null value")
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}
