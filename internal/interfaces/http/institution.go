package http

import (
	"log"
	"net/http"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/sync"
)

// InstitutionHandler serves the institution catalog.
type InstitutionHandler struct {
	institutions ledger.InstitutionRepository
	syncService  *sync.Service
}

// NewInstitutionHandler creates a new institution handler.
func NewInstitutionHandler(institutions ledger.InstitutionRepository, syncService *sync.Service) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions, syncService: syncService}
}

// InstitutionResponse is the wire format for one catalog entry.
type InstitutionResponse struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	LogoURL    string `json:"logoUrl,omitempty"`
}

// HandleListInstitutions returns the enabled institution catalog.
func (h *InstitutionHandler) HandleListInstitutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	institutions, err := h.institutions.List(r.Context())
	if err != nil {
		log.Printf("Failed to list institutions: %v", err)
		http.Error(w, "Failed to list institutions", http.StatusInternalServerError)
		return
	}

	response := make([]InstitutionResponse, 0, len(institutions))
	for _, inst := range institutions {
		response = append(response, InstitutionResponse{
			ID:         inst.ID,
			ExternalID: inst.ExternalID,
			Name:       inst.Name,
			LogoURL:    inst.LogoURL,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleRefreshInstitutions re-imports the catalog from the provider.
func (h *InstitutionHandler) HandleRefreshInstitutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.syncService.RefreshInstitutions(r.Context())
	if err != nil {
		log.Printf("Failed to refresh institutions: %v", err)
		http.Error(w, "Failed to refresh institutions", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}
