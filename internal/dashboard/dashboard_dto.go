package dashboard

type SummaryResponse struct {
	Scope         string           `json:"scope"`
	StatusCounts  map[string]int64 `json:"status_counts"`
	ApprovedDays  map[string]int64 `json:"approved_days"`
	EmployeeCount *int64           `json:"employee_count,omitempty"`
	Balances      map[string]int   `json:"balances,omitempty"`
	GeneratedAt   string           `json:"generated_at"`
}
