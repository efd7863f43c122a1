package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

var (
	// ErrNoAccounts means there is neither a local key nor an unlocked node account.
	ErrNoAccounts = errors.New("No accounts. Must provide mnemonic or node must have unlocked accounts.")
	// ErrReverted is returned for mined transactions with a failed status.
	ErrReverted = errors.New("transaction reverted")
)

// TxOptions mirrors the gas/gasPrice/from triple reported back to callers.
type TxOptions struct {
	Gas      uint64         `json:"gas"`
	GasPrice *big.Int       `json:"gasPrice"`
	From     common.Address `json:"from"`
}

// Transactor simulates and submits contract calls from a single account.
// With a private key it signs locally; otherwise the node signs with its unlocked account.
type Transactor struct {
	client  Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	receiptTimeout time.Duration
	pollInterval   time.Duration
	log            zerolog.Logger
}

// NewTransactor resolves the sending account. key may be nil to use the node's first account.
func NewTransactor(ctx context.Context, cfg Config, client Client, key *ecdsa.PrivateKey, log zerolog.Logger) (*Transactor, error) {
	t := &Transactor{
		client:         client,
		key:            key,
		receiptTimeout: cfg.ReceiptTimeout,
		pollInterval:   cfg.ReceiptPollInterval,
		log:            log.With().Str("component", "transactor").Logger(),
	}
	if t.pollInterval <= 0 {
		t.pollInterval = time.Second
	}

	if key != nil {
		t.from = crypto.PubkeyToAddress(key.PublicKey)
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain id: %w", err)
		}
		t.chainID = chainID
		return t, nil
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list node accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	t.from = accounts[0]
	return t, nil
}

// From returns the sending account.
func (t *Transactor) From() common.Address {
	return t.from
}

// LocalSigner reports whether transactions are signed in-process.
func (t *Transactor) LocalSigner() bool {
	return t.key != nil
}

// Call runs an eth_call against the latest block.
func (t *Transactor) Call(ctx context.Context, to common.Address, data []byte, opts *TxOptions) ([]byte, error) {
	msg := ethereum.CallMsg{
		From: t.from,
		To:   &to,
		Data: data,
	}
	if opts != nil {
		msg.Gas = opts.Gas
		msg.GasPrice = opts.GasPrice
	}
	out, err := t.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transact submits a call and blocks until its receipt is available.
// A reverted receipt is returned together with ErrReverted.
func (t *Transactor) Transact(ctx context.Context, to common.Address, data []byte, opts TxOptions) (*types.Receipt, error) {
	hash, err := t.Send(ctx, to, data, opts)
	if err != nil {
		return nil, err
	}
	return t.Confirm(ctx, hash)
}

// Send submits a call without waiting for it to be mined.
func (t *Transactor) Send(ctx context.Context, to common.Address, data []byte, opts TxOptions) (common.Hash, error) {
	hash, err := t.send(ctx, TxRequest{
		From:     t.from,
		To:       to,
		Gas:      opts.Gas,
		GasPrice: opts.GasPrice,
		Data:     data,
	})
	if err != nil {
		return common.Hash{}, err
	}

	t.log.Info().
		Str("tx_hash", hash.Hex()).
		Str("to", to.Hex()).
		Bool("local_signer", t.LocalSigner()).
		Msg("Transaction submitted")
	return hash, nil
}

// Confirm waits for hash to be mined. A reverted receipt is returned together with ErrReverted.
func (t *Transactor) Confirm(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := t.WaitMined(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}
	return receipt, nil
}

func (t *Transactor) send(ctx context.Context, req TxRequest) (common.Hash, error) {
	if req.GasPrice == nil {
		return common.Hash{}, fmt.Errorf("gas price is required")
	}

	if t.key == nil {
		hash, err := t.client.SendNodeTransaction(ctx, req)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
		}
		return hash, nil
	}

	nonce, err := t.client.PendingNonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	to := req.To
	tx, err := types.SignNewTx(t.key, types.LatestSignerForChainID(t.chainID), &types.LegacyTx{
		Nonce:    nonce,
		GasPrice: req.GasPrice,
		Gas:      req.Gas,
		To:       &to,
		Value:    new(big.Int),
		Data:     req.Data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := t.client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return tx.Hash(), nil
}

// WaitMined polls for the receipt of hash until it is mined, the receipt timeout
// elapses or ctx is done. Only ethereum.NotFound is retried.
func (t *Transactor) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx := ctx
	if t.receiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.receiptTimeout)
		defer cancel()
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(t.pollInterval), waitCtx)
	receipt, err := backoff.RetryWithData(func() (*types.Receipt, error) {
		r, err := t.client.TransactionReceipt(waitCtx, hash)
		if err == nil && r != nil {
			return r, nil
		}
		if err == nil || errors.Is(err, ethereum.NotFound) {
			return nil, ethereum.NotFound
		}
		return nil, backoff.Permanent(err)
	}, b)
	if err != nil {
		if ctxErr := waitCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("timed out waiting for receipt of %s: %w", hash.Hex(), ctxErr)
		}
		return nil, fmt.Errorf("failed to fetch receipt of %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}
