package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type RegisterResponse struct {
	Message    string      `json:"message"`
	Token      string      `json:"token"`
	ExpiresAt  string      `json:"expires_at"`
	User       UserProfile `json:"user"`
	PlaneReady bool        `json:"plane_ready"`
}

type ValidateTokenResponse struct {
	Valid   bool         `json:"valid"`
	User    *UserProfile `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

type SessionResponse struct {
	Message string      `json:"message"`
	User    UserProfile `json:"user"`
}

type OnboardingResponse struct {
	Message       string `json:"message"`
	UserID        string `json:"user_id"`
	PhoneNumber   string `json:"phone_number"`
	Name          string `json:"name"`
	AlreadyExists bool   `json:"already_exists"`
}

type CreateTaskResponse struct {
	Message  string `json:"message"`
	TaskID   string `json:"task_id,omitempty"`
	TaskName string `json:"task_name,omitempty"`
	TaskURL  string `json:"task_url,omitempty"`
}

type SetPlaneTokenResponse struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"`
	PlaneUserID string `json:"plane_user_id,omitempty"`
}
