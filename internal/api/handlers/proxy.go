package handlers

import (
	"encoding/json"
	"net/http"

	"proxyd/internal/core/domain"
)

type CreateProxyRequest struct {
	OldIP     string `json:"old_ip" validate:"required,max=255"`
	OldPort   int    `json:"old_port" validate:"required,min=1,max=65535"`
	// fqdn keeps malformed strings out of the nginx template
	NewDomain    string `json:"new_domain" validate:"required,fqdn,max=255"`
	HTTPSEnabled bool   `json:"https_enabled"`
}

type UpdateProxyRequest struct {
	OldIP        *string `json:"old_ip" validate:"omitempty,max=255"`
	OldPort      *int    `json:"old_port" validate:"omitempty,min=1,max=65535"`
	NewDomain    *string `json:"new_domain" validate:"omitempty,fqdn,max=255"`
	HTTPSEnabled *bool   `json:"https_enabled"`
	IsActive     *bool   `json:"is_active"`
}

type ProxyHandler struct {
	Service domain.ProxyService
}

func NewProxyHandler(service domain.ProxyService) *ProxyHandler {
	return &ProxyHandler{Service: service}
}

// Create handles POST /api/proxies
func (h *ProxyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	proxy, err := h.Service.Create(r.Context(), &domain.Proxy{
		OldIP:        req.OldIP,
		OldPort:      req.OldPort,
		NewDomain:    req.NewDomain,
		HTTPSEnabled: req.HTTPSEnabled,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Proxy created successfully",
		"proxy":   proxy,
	})
}

// List handles GET /api/proxies
func (h *ProxyHandler) List(w http.ResponseWriter, r *http.Request) {
	proxies, err := h.Service.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if proxies == nil {
		proxies = []domain.Proxy{}
	}
	writeJSON(w, http.StatusOK, proxies)
}

// Get handles GET /api/proxies/{id}
func (h *ProxyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Proxy not found")
		return
	}

	proxy, err := h.Service.Get(r.Context(), id)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proxy)
}

// Update handles PUT /api/proxies/{id}
func (h *ProxyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Proxy not found")
		return
	}

	var req UpdateProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	proxy, err := h.Service.Update(r.Context(), id, domain.ProxyPatch{
		OldIP:        req.OldIP,
		OldPort:      req.OldPort,
		NewDomain:    req.NewDomain,
		HTTPSEnabled: req.HTTPSEnabled,
		IsActive:     req.IsActive,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Proxy updated successfully",
		"proxy":   proxy,
	})
}

// Delete handles DELETE /api/proxies/{id}
func (h *ProxyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Proxy not found")
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Proxy deleted successfully",
	})
}
