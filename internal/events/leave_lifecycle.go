package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	EventLeaveApplied   = "leave_applied"
	EventLeaveCancelled = "leave_cancelled"
	EventLeaveApproved  = "leave_approved"
	EventLeaveRejected  = "leave_rejected"
)

// LeaveLifecycleEvent is published once per leave request transition.
type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	ActorID    string    `json:"actor_id"`
	Category   string    `json:"category"`
	TotalDays  int       `json:"total_days"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
