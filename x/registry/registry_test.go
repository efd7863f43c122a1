package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const sample = `
networks:
  "1337":
    Store: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
    LongShortPairCreator: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
    RangeBondLongShortPairFinancialProductLibrary: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
  "416":
    Store: "0x000000000000000000000000000000000000dEaD"
`

func TestParse_ResolvesCaseInsensitively(t *testing.T) {
	r, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Equal(t, 2, r.Networks())

	addr, err := r.Address(1337, "store")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), addr)

	addr, err = r.Address(1337, FinancialProductLibrary("RangeBond"))
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"), addr)
}

func TestAddress_NotFound(t *testing.T) {
	r, err := Parse([]byte(sample))
	require.NoError(t, err)

	_, err = r.Address(416, LSPCreatorContract)
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "no LongShortPairCreator address for network 416")

	_, err = r.Address(1, StoreContract)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParse_RejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("networks:\n  mainnet:\n    Store: \"0x5FbDB2315678afecb367f032d93F642f64180aa3\"\n"))
	require.ErrorContains(t, err, "invalid network id")

	_, err = Parse([]byte("networks:\n  \"1\":\n    Store: \"nope\"\n"))
	require.ErrorContains(t, err, "invalid address")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	_, err = r.Address(1337, LSPCreatorContract)
	require.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
