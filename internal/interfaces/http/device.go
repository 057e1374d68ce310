package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/postgres"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
)

// DeviceHandler registers FCM device tokens so lifecycle notifications
// can reach the user's devices.
type DeviceHandler struct {
	tokens *postgres.DeviceTokenRepository
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(tokens *postgres.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{tokens: tokens}
}

// RegisterDeviceRequest is the body of a device registration.
type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

// HandleRegisterDevice upserts a device token for the authenticated user.
func (h *DeviceHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	if err := h.tokens.Register(r.Context(), userID, req.Token, req.Platform); err != nil {
		log.Printf("User %d: failed to register device token: %v", userID, err)
		http.Error(w, "Failed to register device", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
