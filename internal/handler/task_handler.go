package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/plane"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

const phoneNumberHeader = "phone_number"

var taskPriorities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
	"urgent": {},
}

type TaskHandler struct {
	users       service.UserStore
	credentials *service.CredentialService
	plane       *plane.Client
}

func NewTaskHandler(users service.UserStore, credentials *service.CredentialService, planeClient *plane.Client) *TaskHandler {
	return &TaskHandler{users: users, credentials: credentials, plane: planeClient}
}

// Create creates a Plane issue on behalf of the user identified by the
// phone_number header. Unlike registration, a missing downstream
// credential is fatal here.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if payload.UserMessage.TaskType != "create_task" {
		writeError(w, apierror.BadRequest("unsupported task_type; only create_task is supported", payload.UserMessage.TaskType))
		return
	}

	phone := strings.TrimSpace(r.Header.Get(phoneNumberHeader))
	if phone == "" {
		writeError(w, apierror.BadRequest("phone_number header is required", ""))
		return
	}

	user, err := h.users.FindByPhone(r.Context(), phone)
	if err != nil {
		writeError(w, apierror.NotFound("user not found; please onboard first via /onboarding", phone))
		return
	}

	cred, err := h.credentials.GetOrCreate(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	if cred.WorkspaceSlug == "" || cred.ProjectID == "" {
		writeError(w, apierror.New("INTERNAL_ERROR",
			"plane workspace or project not configured", "", http.StatusInternalServerError))
		return
	}

	details := payload.UserMessage.TaskDetails
	priority := strings.ToLower(strings.TrimSpace(details.Priority))
	if _, exists := taskPriorities[priority]; !exists {
		priority = "medium"
	}

	issuePayload := map[string]any{
		"name":     details.Title,
		"priority": priority,
	}
	if details.Description != "" {
		issuePayload["description_html"] = "<p>" + details.Description + "</p>"
	}

	issue, err := h.plane.CreateIssue(r.Context(), cred.APIToken, cred.WorkspaceSlug, cred.ProjectID, issuePayload)
	if err != nil {
		writeError(w, err)
		return
	}

	taskID, _ := issue["id"].(string)
	taskURL := fmt.Sprintf("%s/%s/projects/%s/issues/%s",
		h.plane.BaseURL(), cred.WorkspaceSlug, cred.ProjectID, taskID)

	writeSuccess(w, http.StatusCreated, model.CreateTaskResponse{
		Message:  "Task created successfully: " + details.Title,
		TaskID:   taskID,
		TaskName: details.Title,
		TaskURL:  taskURL,
	})
}
