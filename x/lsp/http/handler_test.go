package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apimw "github.com/sx-network/lsp-deployer/server/api/middleware"
	"github.com/sx-network/lsp-deployer/x/lsp"
	"github.com/sx-network/lsp-deployer/x/lsp/store"
)

type fakeDeployer struct {
	got lsp.DeployRequest
	d   *lsp.Deployment
	err error
}

func (f *fakeDeployer) Deploy(_ context.Context, req lsp.DeployRequest) (*lsp.Deployment, error) {
	f.got = req
	return f.d, f.err
}

func newTestRouter(t *testing.T, d lsp.Deployer) (*mux.Router, *store.Memory) {
	t.Helper()
	history, err := store.NewMemory(16)
	require.NoError(t, err)

	h := NewHandler(d, history, zerolog.New(io.Discard))
	r := mux.NewRouter()
	h.RegisterMux(r)
	return r, history
}

const deployBody = `{
	"url": "http://localhost:8545",
	"gasprice": 10,
	"pairName": "ETH range bond",
	"expirationTimestamp": "2030-01-01T00:00:00Z",
	"collateralPerPair": "1000000000000000000",
	"priceIdentifier": "ETHUSD",
	"longSynthName": "long",
	"longSynthSymbol": "L",
	"shortSynthName": "short",
	"shortSynthSymbol": "S",
	"collateralToken": "0x000000000000000000000000000000000000c011",
	"fpl": "RangeBond",
	"lowerBound": "1000",
	"upperBound": "2000",
	"simulate": true
}`

func TestHandler_DeployAndFetch(t *testing.T) {
	fake := &fakeDeployer{d: &lsp.Deployment{
		NetworkID:        416,
		Simulated:        true,
		SimulatedAddress: "0x00000000000000000000000000000000000000aa",
	}}
	r, _ := newTestRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, routeDeploy, strings.NewReader(deployBody))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Equal(t, "ETH range bond", fake.got.PairName)
	require.Equal(t, lsp.Timestamp(1893456000), fake.got.ExpirationTimestamp)
	require.Equal(t, "2000", fake.got.UpperBound.String())
	require.True(t, fake.got.Simulate)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, float64(416), body["networkId"])
	require.Equal(t, "0x00000000000000000000000000000000000000aa", body["simulatedAddress"])

	u, err := r.Get(routeNameDeploymentByID).URL("id", id)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, store.StatusSimulated, got.Status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routeDeployments+"?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, id, list.Deployments[0].ID)
}

func TestHandler_DeployErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    lsp.NewError(lsp.KindValidation, "upperBound required").WithField("upperBound", "required_with_fpl"),
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "resolution",
			err:    lsp.NewError(lsp.KindResolution, "no Store address for network 9"),
			status: http.StatusUnprocessableEntity,
			code:   "unknown_contract",
		},
		{
			name:   "simulation",
			err:    lsp.NewError(lsp.KindSimulation, "createLongShortPair simulation failed"),
			status: http.StatusUnprocessableEntity,
			code:   "simulation_failed",
		},
		{
			name:   "network",
			err:    lsp.NewError(lsp.KindNetwork, "failed to connect to node"),
			status: http.StatusBadGateway,
			code:   "node_error",
		},
		{
			name:   "transaction",
			err:    lsp.NewError(lsp.KindTransaction, "createLongShortPair transaction failed"),
			status: http.StatusBadGateway,
			code:   "transaction_failed",
		},
		{
			name:   "foreign",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, history := newTestRouter(t, &fakeDeployer{err: tt.err})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeDeploy, strings.NewReader(deployBody)))
			require.Equal(t, tt.status, rec.Code)

			var body struct {
				Error struct {
					Code    string         `json:"code"`
					Message string         `json:"message"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body.Error.Code)
			require.Equal(t, tt.err.Error(), body.Error.Message)
			require.NotEmpty(t, body.Error.Details["deployment_id"])

			list := history.List(0)
			require.Len(t, list, 1)
			require.Equal(t, store.StatusFailed, list[0].Status)
			require.Equal(t, list[0].ID, rec.Header().Get(apimw.DeploymentIDHeader))
			require.NotContains(t, body.Error.Details, "deployment")
		})
	}
}

func TestHandler_FailedLibraryParametersReportPair(t *testing.T) {
	fake := &fakeDeployer{
		d: &lsp.Deployment{
			NetworkID:          416,
			Address:            "0x00000000000000000000000000000000000000aa",
			TransactionHash:    "0xfeed",
			FPLTransactionHash: "0xbeef",
		},
		err: lsp.NewError(lsp.KindTransaction, "setLongShortPairParameters transaction failed"),
	}
	r, history := newTestRouter(t, fake)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeDeploy, strings.NewReader(deployBody)))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				DeploymentID string         `json:"deployment_id"`
				Deployment   lsp.Deployment `json:"deployment"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "transaction_failed", body.Error.Code)
	require.Equal(t, "0x00000000000000000000000000000000000000aa", body.Error.Details.Deployment.Address)
	require.Equal(t, "0xfeed", body.Error.Details.Deployment.TransactionHash)
	require.Equal(t, "0xbeef", body.Error.Details.Deployment.FPLTransactionHash)

	got, err := history.Get(body.Error.Details.DeploymentID)
	require.NoError(t, err)
	require.Equal(t, store.StatusFailed, got.Status)
	require.Equal(t, "0xfeed", got.TransactionHash)
}

func TestHandler_BadInput(t *testing.T) {
	r, history := newTestRouter(t, &fakeDeployer{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeDeploy, bytes.NewReader([]byte("{not json"))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 1, history.Len())
	failed := history.List(0)[0]
	require.Equal(t, store.StatusFailed, failed.Status)
	require.Equal(t, "validation", failed.ErrorKind)
	require.Equal(t, failed.ID, rec.Header().Get(apimw.DeploymentIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routeDeployments+"?limit=-1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lsp/deployments/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routeDeploy, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
