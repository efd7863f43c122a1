package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

// Financial product library families and the shape of their setLongShortPairParameters call.
const (
	FPLBinaryOption       = "BinaryOption"
	FPLCappedYieldDollar  = "CappedYieldDollar"
	FPLCoveredCall        = "CoveredCall"
	FPLSimpleSuccessToken = "SimpleSuccessToken"
	FPLRangeBond          = "RangeBond"
	FPLLinear             = "Linear"
	FPLSuccessToken       = "SuccessToken"
)

// FPLShape tells which arguments a family's setLongShortPairParameters takes.
type FPLShape int

const (
	// FPLShapeUnknown families have no parameter-setting call we know of.
	FPLShapeUnknown FPLShape = iota
	// FPLShapeStrike is (address longShortPair, uint256 strike).
	FPLShapeStrike
	// FPLShapeRange is (address longShortPair, uint256 upperBound, uint256 lowerBound).
	FPLShapeRange
	// FPLShapeSuccess is (address longShortPair, uint256 strike, uint256 basePercentage).
	FPLShapeSuccess
)

func (s FPLShape) String() string {
	switch s {
	case FPLShapeStrike:
		return "strike"
	case FPLShapeRange:
		return "range"
	case FPLShapeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// ShapeOf maps an FPL family name to its parameter shape.
func ShapeOf(family string) FPLShape {
	switch family {
	case FPLBinaryOption, FPLCappedYieldDollar, FPLCoveredCall, FPLSimpleSuccessToken:
		return FPLShapeStrike
	case FPLRangeBond, FPLLinear:
		return FPLShapeRange
	case FPLSuccessToken:
		return FPLShapeSuccess
	default:
		return FPLShapeUnknown
	}
}

var (
	funcSetParams2 = w3.MustNewFunc("setLongShortPairParameters(address,uint256)", "")
	funcSetParams3 = w3.MustNewFunc("setLongShortPairParameters(address,uint256,uint256)", "")
)

// SetStrikeParamsCalldata encodes setLongShortPairParameters(pair, strike).
func SetStrikeParamsCalldata(pair common.Address, strike *big.Int) ([]byte, error) {
	if strike == nil {
		return nil, fmt.Errorf("strike cannot be nil")
	}
	data, err := funcSetParams2.EncodeArgs(pair, strike)
	if err != nil {
		return nil, fmt.Errorf("encode setLongShortPairParameters: %w", err)
	}
	return data, nil
}

// SetRangeParamsCalldata encodes setLongShortPairParameters(pair, upperBound, lowerBound).
func SetRangeParamsCalldata(pair common.Address, upper, lower *big.Int) ([]byte, error) {
	return encodeThree(pair, upper, lower)
}

// SetSuccessParamsCalldata encodes setLongShortPairParameters(pair, strike, basePercentage).
func SetSuccessParamsCalldata(pair common.Address, strike, basePercentage *big.Int) ([]byte, error) {
	return encodeThree(pair, strike, basePercentage)
}

func encodeThree(pair common.Address, a, b *big.Int) ([]byte, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("parameters cannot be nil")
	}
	data, err := funcSetParams3.EncodeArgs(pair, a, b)
	if err != nil {
		return nil, fmt.Errorf("encode setLongShortPairParameters: %w", err)
	}
	return data, nil
}
