package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is the subset of node RPC a deployment needs.
type Client interface {
	NetworkID(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Accounts lists the accounts the node can sign for (eth_accounts).
	Accounts(ctx context.Context) ([]common.Address, error)
	// SendNodeTransaction asks the node to sign and submit with one of its accounts (eth_sendTransaction).
	SendNodeTransaction(ctx context.Context, req TxRequest) (common.Hash, error)

	Close()
}

// Dialer opens a Client for a node url.
type Dialer func(ctx context.Context, url string) (Client, error)

// TxRequest is a legacy-priced transaction before nonce assignment and signing.
type TxRequest struct {
	From     common.Address
	To       common.Address
	Gas      uint64
	GasPrice *big.Int
	Data     []byte
}

// RPCClient implements Client over a go-ethereum rpc connection.
type RPCClient struct {
	*ethclient.Client
	rpc *rpc.Client
}

var _ Client = (*RPCClient)(nil)

// Dial connects to url over HTTP, WS or IPC.
func Dial(ctx context.Context, url string) (Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &RPCClient{Client: ethclient.NewClient(rc), rpc: rc}, nil
}

func (c *RPCClient) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return accounts, nil
}

type sendTxArgs struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Gas      hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big   `json:"gasPrice,omitempty"`
	Data     hexutil.Bytes  `json:"data"`
}

func (c *RPCClient) SendNodeTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	args := sendTxArgs{
		From:     req.From,
		To:       req.To,
		Gas:      hexutil.Uint64(req.Gas),
		GasPrice: (*hexutil.Big)(req.GasPrice),
		Data:     req.Data,
	}
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	return hash, nil
}
