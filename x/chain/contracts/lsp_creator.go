package contracts

import (
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
)

// LongShortPairCreator ABI JSON embedded at compile time
//
//go:embed abi/long_short_pair_creator.json
var lspCreatorABIJSON string

const methodCreateLongShortPair = "createLongShortPair"

var eventCreatedLongShortPair = w3.MustNewEvent(
	"CreatedLongShortPair(address indexed longShortPair, address indexed deployerAddress, address longToken, address shortToken)",
)

// ErrPairEventNotFound is returned when a receipt carries no CreatedLongShortPair log.
var ErrPairEventNotFound = errors.New("CreatedLongShortPair event not found in receipt logs")

// CreatorParams matches LongShortPairCreator.CreatorParams field for field.
type CreatorParams struct {
	PairName                     string         `abi:"pairName"`
	ExpirationTimestamp          uint64         `abi:"expirationTimestamp"`
	CollateralPerPair            *big.Int       `abi:"collateralPerPair"`
	PriceIdentifier              [32]byte       `abi:"priceIdentifier"`
	EnableEarlyExpiration        bool           `abi:"enableEarlyExpiration"`
	LongSynthName                string         `abi:"longSynthName"`
	LongSynthSymbol              string         `abi:"longSynthSymbol"`
	ShortSynthName               string         `abi:"shortSynthName"`
	ShortSynthSymbol             string         `abi:"shortSynthSymbol"`
	CollateralToken              common.Address `abi:"collateralToken"`
	FinancialProductLibrary      common.Address `abi:"financialProductLibrary"`
	CustomAncillaryData          []byte         `abi:"customAncillaryData"`
	ProposerReward               *big.Int       `abi:"proposerReward"`
	OptimisticOracleLivenessTime *big.Int       `abi:"optimisticOracleLivenessTime"`
	OptimisticOracleProposerBond *big.Int       `abi:"optimisticOracleProposerBond"`
}

// CreatedPair is the decoded CreatedLongShortPair event.
type CreatedPair struct {
	LongShortPair   common.Address
	DeployerAddress common.Address
	LongToken       common.Address
	ShortToken      common.Address
}

// LSPCreatorBinding encodes calls to a LongShortPairCreator and decodes its events.
type LSPCreatorBinding struct {
	abi abi.ABI
}

// NewLSPCreatorBinding parses the embedded LongShortPairCreator ABI.
func NewLSPCreatorBinding() (*LSPCreatorBinding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(lspCreatorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse LongShortPairCreator ABI: %w", err)
	}
	return &LSPCreatorBinding{abi: parsedABI}, nil
}

// ABI returns the parsed ABI of the LongShortPairCreator contract.
func (b *LSPCreatorBinding) ABI() abi.ABI {
	return b.abi
}

// BuildCreateCalldata encodes createLongShortPair(params).
func (b *LSPCreatorBinding) BuildCreateCalldata(p CreatorParams) ([]byte, error) {
	if p.CollateralPerPair == nil || p.ProposerReward == nil ||
		p.OptimisticOracleLivenessTime == nil || p.OptimisticOracleProposerBond == nil {
		return nil, fmt.Errorf("creator params have unset amounts")
	}
	if p.CustomAncillaryData == nil {
		p.CustomAncillaryData = []byte{}
	}

	data, err := b.abi.Pack(methodCreateLongShortPair, p)
	if err != nil {
		return nil, fmt.Errorf("failed to pack createLongShortPair calldata: %w", err)
	}
	return data, nil
}

// DecodeCreateResult decodes the address returned by a simulated createLongShortPair call.
func (b *LSPCreatorBinding) DecodeCreateResult(output []byte) (common.Address, error) {
	out, err := b.abi.Unpack(methodCreateLongShortPair, output)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack createLongShortPair result: %w", err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unexpected createLongShortPair result length %d", len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected createLongShortPair result type %T", out[0])
	}
	return addr, nil
}

// CreatedPairFromReceipt returns the first CreatedLongShortPair event emitted by creator.
func (b *LSPCreatorBinding) CreatedPairFromReceipt(creator common.Address, receipt *types.Receipt) (CreatedPair, error) {
	if receipt == nil {
		return CreatedPair{}, fmt.Errorf("receipt cannot be nil")
	}
	for _, l := range receipt.Logs {
		if l == nil || l.Address != creator || len(l.Topics) == 0 || l.Topics[0] != eventCreatedLongShortPair.Topic0 {
			continue
		}
		var ev CreatedPair
		if err := eventCreatedLongShortPair.DecodeArgs(l, &ev.LongShortPair, &ev.DeployerAddress, &ev.LongToken, &ev.ShortToken); err != nil {
			return CreatedPair{}, fmt.Errorf("failed to decode CreatedLongShortPair: %w", err)
		}
		return ev, nil
	}
	return CreatedPair{}, ErrPairEventNotFound
}

// CreatedPairTopic is the topic0 of CreatedLongShortPair.
func CreatedPairTopic() common.Hash {
	return eventCreatedLongShortPair.Topic0
}
