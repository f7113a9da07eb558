package queue

import (
	"fmt"
	"time"
)

// Priority is an advisory urgency derived from submission age. Values are
// ordered so that a larger value is more urgent.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

const (
	lowPriorityAge    = 12 * time.Hour
	highPriorityAge   = 48 * time.Hour
	urgentPriorityAge = 72 * time.Hour
)

// EstimatePriority classifies an item by its age at now.
func EstimatePriority(item *Item, now time.Time) Priority {
	if item == nil {
		return PriorityNormal
	}
	return PriorityForAge(item.Age(now))
}

// PriorityForAge applies the age thresholds.
func PriorityForAge(age time.Duration) Priority {
	switch {
	case age > urgentPriorityAge:
		return PriorityUrgent
	case age > highPriorityAge:
		return PriorityHigh
	case age < lowPriorityAge:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
