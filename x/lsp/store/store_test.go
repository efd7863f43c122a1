package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sx-network/lsp-deployer/x/lsp"
)

func TestMemory_AddClassifiesOutcome(t *testing.T) {
	m, err := NewMemory(8)
	require.NoError(t, err)

	req := lsp.DeployRequest{PairName: "pair", Mnemonic: "test test test test test test test test test test test junk"}

	deployed := m.Add(req, &lsp.Deployment{Address: "0x01"}, nil)
	require.Equal(t, StatusDeployed, deployed.Status)
	require.NotEmpty(t, deployed.ID)
	require.Equal(t, "[redacted]", deployed.Request.Mnemonic)

	simulated := m.Add(req, &lsp.Deployment{Simulated: true}, nil)
	require.Equal(t, StatusSimulated, simulated.Status)

	failed := m.Add(req, nil, lsp.NewError(lsp.KindSimulation, "createLongShortPair simulation failed"))
	require.Equal(t, StatusFailed, failed.Status)
	require.Equal(t, "simulation", failed.ErrorKind)
	require.Contains(t, failed.Error, "simulation failed")

	foreign := m.Add(req, nil, errors.New("boom"))
	require.Empty(t, foreign.ErrorKind)

	got, err := m.Get(deployed.ID)
	require.NoError(t, err)
	require.Equal(t, "0x01", got.Address)
}

func TestMemory_ListNewestFirstAndEvicts(t *testing.T) {
	m, err := NewMemory(3)
	require.NoError(t, err)

	var ids []string
	for i := range 5 {
		rec := m.Add(lsp.DeployRequest{PairName: fmt.Sprintf("pair-%d", i)}, &lsp.Deployment{}, nil)
		ids = append(ids, rec.ID)
	}
	require.Equal(t, 3, m.Len())

	list := m.List(0)
	require.Len(t, list, 3)
	require.Equal(t, "pair-4", list[0].Request.PairName)
	require.Equal(t, "pair-2", list[2].Request.PairName)

	require.Len(t, m.List(2), 2)

	_, err = m.Get(ids[0])
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_GetDoesNotRefreshRecency(t *testing.T) {
	m, err := NewMemory(2)
	require.NoError(t, err)

	first := m.Add(lsp.DeployRequest{PairName: "a"}, &lsp.Deployment{}, nil)
	m.Add(lsp.DeployRequest{PairName: "b"}, &lsp.Deployment{}, nil)

	_, err = m.Get(first.ID)
	require.NoError(t, err)

	m.Add(lsp.DeployRequest{PairName: "c"}, &lsp.Deployment{}, nil)
	_, err = m.Get(first.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecord_JSONFlattensDeployment(t *testing.T) {
	m, err := NewMemory(1)
	require.NoError(t, err)

	rec := m.Add(lsp.DeployRequest{PairName: "a"}, &lsp.Deployment{NetworkID: 416, TransactionHash: "0xabc"}, nil)
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, rec.ID, body["id"])
	require.Equal(t, "deployed", body["status"])
	require.Equal(t, float64(416), body["networkId"])
	require.Equal(t, "0xabc", body["transactionHash"])
}

func TestNewMemory_RejectsZeroSize(t *testing.T) {
	_, err := NewMemory(0)
	require.Error(t, err)
}
