package contracts

import (
	"fmt"

	"github.com/lmittmann/w3"
)

var funcDecimals = w3.MustNewFunc("decimals()", "uint8")

// DecimalsCalldata encodes IERC20Standard.decimals().
func DecimalsCalldata() ([]byte, error) {
	data, err := funcDecimals.EncodeArgs()
	if err != nil {
		return nil, fmt.Errorf("encode decimals: %w", err)
	}
	return data, nil
}

// DecodeDecimals decodes the uint8 returned by decimals().
func DecodeDecimals(output []byte) (uint8, error) {
	var decimals uint8
	if err := funcDecimals.DecodeReturns(output, &decimals); err != nil {
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	return decimals, nil
}
