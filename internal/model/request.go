package model

type RegisterRequest struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
}

type ValidateTokenRequest struct {
	Token  string `json:"token"`
	APIKey string `json:"api_key"`
}

type SessionLoginRequest struct {
	Token string `json:"token"`
}

type OnboardingRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"ph_number"`
}

type TaskDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type UserMessage struct {
	TaskType    string      `json:"task_type"`
	TaskDetails TaskDetails `json:"task_details"`
}

type CreateTaskRequest struct {
	UserMessage UserMessage `json:"user_message"`
}

type SetPlaneTokenRequest struct {
	PhoneNumber        string `json:"phone_number"`
	PlaneAPIToken      string `json:"plane_api_token"`
	PlaneUserID        string `json:"plane_user_id"`
	PlaneEmail         string `json:"plane_email"`
	PlaneWorkspaceSlug string `json:"plane_workspace_slug"`
	PlaneProjectID     string `json:"plane_project_id"`
}
