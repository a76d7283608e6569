package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kriya-gateway/internal/middleware"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

// maxProxyBodyBytes caps forwarded request bodies.
const maxProxyBodyBytes = 10 << 20

type ProxyHandler struct {
	proxy *service.ProxyService
}

func NewProxyHandler(proxy *service.ProxyService) *ProxyHandler {
	return &ProxyHandler{proxy: proxy}
}

// Forward relays the request to Plane with the authenticated user's cached
// downstream credential and writes the downstream status and body back
// verbatim.
func (h *ProxyHandler) Forward(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBodyBytes))
	if err != nil {
		writeError(w, apierror.BadRequest("could not read request body", ""))
		return
	}
	defer r.Body.Close()

	path := "/" + chi.URLParam(r, "*")
	result, err := h.proxy.Forward(r.Context(), user, r.Method, path, r.URL.Query(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(result.Body)
}
