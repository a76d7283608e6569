package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

type AdminHandler struct {
	credentials *service.CredentialService
}

func NewAdminHandler(credentials *service.CredentialService) *AdminHandler {
	return &AdminHandler{credentials: credentials}
}

// SetPlaneToken injects a downstream credential bundle directly, bypassing
// the handshake. Trusted internal use only.
func (h *AdminHandler) SetPlaneToken(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SetPlaneTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.PlaneAPIToken) == "" {
		writeError(w, apierror.BadRequest("plane_api_token is required", "plane_api_token"))
		return
	}

	user, err := h.credentials.SetManual(r.Context(), strings.TrimSpace(payload.PhoneNumber), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SetPlaneTokenResponse{
		Message:     "Plane API token set successfully for " + user.PhoneNumber,
		PhoneNumber: user.PhoneNumber,
		PlaneUserID: user.Plane.UserID,
	})
}
