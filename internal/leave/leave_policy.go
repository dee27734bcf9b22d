package leave

import "go-leave/internal/domain"

// CanCancel holds only for the employee who filed the request.
func CanCancel(p domain.Principal, l *LeaveRequest) bool {
	return l != nil && p.ID == l.EmployeeID
}

// CanDecide holds for managers, whoever owns the request.
func CanDecide(p domain.Principal) bool {
	return p.IsManager()
}

// CanView lets owners see their own requests and managers see every request.
func CanView(p domain.Principal, l *LeaveRequest) bool {
	return CanDecide(p) || CanCancel(p, l)
}
