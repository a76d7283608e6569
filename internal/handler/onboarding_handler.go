package handler

import (
	"encoding/json"
	"net/http"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

type OnboardingHandler struct {
	auth *service.AuthService
}

func NewOnboardingHandler(auth *service.AuthService) *OnboardingHandler {
	return &OnboardingHandler{auth: auth}
}

func (h *OnboardingHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	result, err := h.auth.Onboard(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "User onboarded successfully"
	status := http.StatusCreated
	if result.AlreadyExists {
		message = "User already onboarded"
		status = http.StatusOK
	}

	writeSuccess(w, status, model.OnboardingResponse{
		Message:       message,
		UserID:        result.User.ID,
		PhoneNumber:   result.User.PhoneNumber,
		Name:          result.User.FullName(),
		AlreadyExists: result.AlreadyExists,
	})
}
