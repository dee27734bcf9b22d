package auth

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=employee manager"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employee_id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Role       string         `json:"role"`
	Balances   map[string]int `json:"balances,omitempty"`
}

type TokenResponse struct {
	User        AuthResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}
