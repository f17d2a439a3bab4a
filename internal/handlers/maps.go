package handlers

import "net/http"

// MapsHandler serves the map-provider key to the authenticated frontend so
// the key lives in server config instead of a baked-in build variable.
type MapsHandler struct {
	apiKey string
}

// NewMapsHandler creates a new maps config handler
func NewMapsHandler(apiKey string) *MapsHandler {
	return &MapsHandler{apiKey: apiKey}
}

// Config handles GET /api/maps-config
func (h *MapsHandler) Config(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"maps_api_key": h.apiKey,
	})
}
