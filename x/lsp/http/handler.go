package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/sx-network/lsp-deployer/server/api"
	apimw "github.com/sx-network/lsp-deployer/server/api/middleware"
	"github.com/sx-network/lsp-deployer/x/lsp"
	"github.com/sx-network/lsp-deployer/x/lsp/store"
)

type Handler struct {
	deployer lsp.Deployer
	history  store.Store
	log      zerolog.Logger
}

func NewHandler(deployer lsp.Deployer, history store.Store, log zerolog.Logger) *Handler {
	return &Handler{
		deployer: deployer,
		history:  history,
		log:      log.With().Str("component", "lsp-http").Logger(),
	}
}

// handleDeploy runs a deployment synchronously; the response is written once both
// transactions have receipts.
func (h *Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()

	var req lsp.DeployRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		rec := h.history.Add(req, nil, lsp.NewError(lsp.KindValidation, "failed to decode request").WithCause(err))
		w.Header().Set(apimw.DeploymentIDHeader, rec.ID)
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request: "+err.Error(),
			map[string]any{"deployment_id": rec.ID})
		return
	}

	d, err := h.deployer.Deploy(r.Context(), req)
	rec := h.history.Add(req, d, err)
	w.Header().Set(apimw.DeploymentIDHeader, rec.ID)

	if err != nil {
		status, code := statusFor(err)
		details := map[string]any{"deployment_id": rec.ID}
		var lspErr *lsp.Error
		if errors.As(err, &lspErr) && len(lspErr.Fields) > 0 {
			details["fields"] = lspErr.Fields
		}
		// Whatever reached the chain before the failure, e.g. the pair when only the
		// library parameters failed.
		if d != nil {
			details["deployment"] = d
		}

		evt := h.log.Warn()
		if status >= http.StatusInternalServerError {
			evt = h.log.Error()
		}
		if d != nil && d.TransactionHash != "" {
			evt = evt.Str("tx_hash", d.TransactionHash).Str("address", d.Address)
		}
		evt.Err(err).Str("deployment_id", rec.ID).Str("code", code).Msg("Deployment failed")

		apicommon.WriteError(w, r, status, code, err.Error(), details)
		return
	}

	apicommon.WriteJSON(w, http.StatusCreated, deployResponse{ID: rec.ID, Deployment: d})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	records := h.history.List(limit)
	apicommon.WriteJSON(w, http.StatusOK, listResponse{Deployments: records, Count: len(records)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		apicommon.WriteError(w, r, http.StatusBadRequest, "missing_path_param", "provide /lsp/deployments/{id}", nil)
		return
	}

	rec, err := h.history.Get(id)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, rec)
}

// statusFor maps a Deploy error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	kind, ok := lsp.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, "internal"
	}
	switch kind {
	case lsp.KindValidation:
		return http.StatusBadRequest, "invalid_request"
	case lsp.KindResolution:
		return http.StatusUnprocessableEntity, "unknown_contract"
	case lsp.KindSimulation:
		return http.StatusUnprocessableEntity, "simulation_failed"
	case lsp.KindNetwork:
		return http.StatusBadGateway, "node_error"
	case lsp.KindTransaction:
		return http.StatusBadGateway, "transaction_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
