package contracts

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Store ABI JSON embedded at compile time
//
//go:embed abi/store.json
var storeABIJSON string

const methodComputeFinalFee = "computeFinalFee"

// fixedPointUnsigned matches FixedPoint.Unsigned.
type fixedPointUnsigned struct {
	RawValue *big.Int `abi:"rawValue"`
}

// StoreBinding encodes calls to the UMA Store, which prices the final fee per collateral.
type StoreBinding struct {
	abi abi.ABI
}

// NewStoreBinding parses the embedded Store ABI.
func NewStoreBinding() (*StoreBinding, error) {
	parsedABI, err := abi.JSON(strings.NewReader(storeABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Store ABI: %w", err)
	}
	return &StoreBinding{abi: parsedABI}, nil
}

// BuildFinalFeeCalldata encodes computeFinalFee(currency).
func (b *StoreBinding) BuildFinalFeeCalldata(currency common.Address) ([]byte, error) {
	data, err := b.abi.Pack(methodComputeFinalFee, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to pack computeFinalFee calldata: %w", err)
	}
	return data, nil
}

// DecodeFinalFee decodes the FixedPoint.Unsigned returned by computeFinalFee.
func (b *StoreBinding) DecodeFinalFee(output []byte) (*big.Int, error) {
	out, err := b.abi.Unpack(methodComputeFinalFee, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack computeFinalFee result: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected computeFinalFee result length %d", len(out))
	}
	fee, ok := abi.ConvertType(out[0], new(fixedPointUnsigned)).(*fixedPointUnsigned)
	if !ok || fee.RawValue == nil {
		return nil, fmt.Errorf("unexpected computeFinalFee result type %T", out[0])
	}
	return fee.RawValue, nil
}
