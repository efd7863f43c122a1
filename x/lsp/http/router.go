package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds the LSP routes on r.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeDeploy, h.handleDeploy).Methods(http.MethodPost).Name(routeNameDeploy)
	r.HandleFunc(routeDeployments, h.handleList).Methods(http.MethodGet).Name(routeNameDeployments)
	r.HandleFunc(routeDeploymentByID, h.handleGet).Methods(http.MethodGet).Name(routeNameDeploymentByID)
}
