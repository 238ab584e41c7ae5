package models

import (
	"time"

	"github.com/google/uuid"
)

// SampleResult - итог обработки одного наблюдения
type SampleResult struct {
	States  map[uuid.UUID]MembershipState `json:"states"`
	Events  []ViolationEvent              `json:"events"`
	Skipped []uuid.UUID                   `json:"skipped,omitempty"`
}

// SampleFailure описывает наблюдение пакета, которое не удалось обработать
type SampleFailure struct {
	SubjectID  string    `json:"subject_id"`
	ObservedAt time.Time `json:"observed_at"`
	Error      string    `json:"error"`
}

// BatchResult - итог обработки пакета наблюдений
type BatchResult struct {
	Processed int              `json:"processed"`
	Events    []ViolationEvent `json:"events"`
	Failures  []SampleFailure  `json:"failures,omitempty"`
}
