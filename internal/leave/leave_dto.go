package leave

type ApplyLeaveRequest struct {
	Category  string `json:"category" binding:"required,oneof=annual sick casual"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"required,max=1000"`
}

type DecideLeaveRequest struct {
	DecisionNote string `json:"decision_note" binding:"max=1000"`
}

type EmployeeSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LeaveResponse struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	Employee     *EmployeeSummary `json:"employee,omitempty"`
	Category     string           `json:"category"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	TotalDays    int              `json:"total_days"`
	Reason       string           `json:"reason"`
	Status       Status           `json:"status"`
	DecisionNote *string          `json:"decision_note,omitempty"`
	DecidedBy    *string          `json:"decided_by,omitempty"`
	DecidedAt    *string          `json:"decided_at,omitempty"`
	CreatedAt    string           `json:"created_at"`
}

type BalanceResponse struct {
	EmployeeID string         `json:"employee_id"`
	Balances   map[string]int `json:"balances"`
}
