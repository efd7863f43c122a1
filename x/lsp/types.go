package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sx-network/lsp-deployer/x/chain"
)

// DeployRequest is the body of POST /lsp/deploy. Amounts are integers in the
// token's smallest unit; gasprice is in GWEI and may be fractional.
type DeployRequest struct {
	URL      string           `json:"url"      validate:"omitempty,url"`
	GasPrice *decimal.Decimal `json:"gasprice"`
	Mnemonic string           `json:"mnemonic"`

	PairName            string           `json:"pairName"            validate:"required"`
	ExpirationTimestamp Timestamp        `json:"expirationTimestamp" validate:"required"`
	CollateralPerPair   *decimal.Decimal `json:"collateralPerPair"   validate:"required"`
	PriceIdentifier     string           `json:"priceIdentifier"     validate:"required,max=32"`
	LongSynthName       string           `json:"longSynthName"       validate:"required"`
	LongSynthSymbol     string           `json:"longSynthSymbol"     validate:"required"`
	ShortSynthName      string           `json:"shortSynthName"      validate:"required"`
	ShortSynthSymbol    string           `json:"shortSynthSymbol"    validate:"required"`
	CollateralToken     string           `json:"collateralToken"     validate:"required,eth_addr"`

	FPL                            string           `json:"fpl"`
	LowerBound                     *decimal.Decimal `json:"lowerBound"`
	UpperBound                     *decimal.Decimal `json:"upperBound"`
	StrikePrice                    *decimal.Decimal `json:"strikePrice"`
	BasePercentage                 *decimal.Decimal `json:"basePercentage"`
	FinancialProductLibraryAddress string           `json:"financialProductLibraryAddress" validate:"omitempty,eth_addr"`

	ProposerReward               *decimal.Decimal `json:"proposerReward"`
	OptimisticOracleProposerBond *decimal.Decimal `json:"optimisticOracleProposerBond"`
	OptimisticOracleLivenessTime *decimal.Decimal `json:"optimisticOracleLivenessTime"`
	EnableEarlyExpiration        bool             `json:"enableEarlyExpiration"`
	CustomAncillaryData          string           `json:"customAncillaryData"`

	Simulate          bool   `json:"simulate"`
	LSPCreatorAddress string `json:"lspCreatorAddress" validate:"omitempty,eth_addr"`
}

// Redacted returns a copy safe to log or persist.
func (r DeployRequest) Redacted() DeployRequest {
	if r.Mnemonic != "" {
		r.Mnemonic = "[redacted]"
	}
	return r
}

// Timestamp is a unix time in seconds. It decodes from a JSON number, a numeric
// string or an RFC 3339 date.
type Timestamp uint64

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		raw = string(b)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
		*t = Timestamp(secs)
		return nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("expirationTimestamp %q is neither unix seconds nor RFC 3339", raw)
	}
	if ts.Unix() < 0 {
		return fmt.Errorf("expirationTimestamp %q is before 1970", raw)
	}
	*t = Timestamp(ts.Unix())
	return nil
}

// Params is the JSON view of the CreatorParams sent to the LongShortPairCreator.
type Params struct {
	PairName                     string `json:"pairName"`
	ExpirationTimestamp          uint64 `json:"expirationTimestamp"`
	CollateralPerPair            string `json:"collateralPerPair"`
	PriceIdentifier              string `json:"priceIdentifier"`
	LongSynthName                string `json:"longSynthName"`
	LongSynthSymbol              string `json:"longSynthSymbol"`
	ShortSynthName               string `json:"shortSynthName"`
	ShortSynthSymbol             string `json:"shortSynthSymbol"`
	CollateralToken              string `json:"collateralToken"`
	FinancialProductLibrary      string `json:"financialProductLibrary"`
	CustomAncillaryData          string `json:"customAncillaryData"`
	ProposerReward               string `json:"proposerReward"`
	OptimisticOracleLivenessTime string `json:"optimisticOracleLivenessTime"`
	OptimisticOracleProposerBond string `json:"optimisticOracleProposerBond"`
	EnableEarlyExpiration        bool   `json:"enableEarlyExpiration"`
}

// FPLParams records the arguments of setLongShortPairParameters.
type FPLParams struct {
	Address        string `json:"address"`
	UpperBound     string `json:"upperBound,omitempty"`
	LowerBound     string `json:"lowerBound,omitempty"`
	BasePercentage string `json:"basePercentage,omitempty"`
}

// Deployment is the outcome of Deploy. Hash and address fields stay empty in simulate mode.
type Deployment struct {
	NetworkID          uint64          `json:"networkId"`
	Decimals           string          `json:"decimals"`
	FinalFee           string          `json:"finalFee"`
	FPL                string          `json:"fpl"`
	Params             Params          `json:"params"`
	LSPCreatorAddress  string          `json:"lspCreatorAddress"`
	TransactionOptions chain.TxOptions `json:"transactionOptions"`
	Simulated          bool            `json:"simulated"`
	SimulatedAddress   string          `json:"simulatedAddress,omitempty"`
	TransactionHash    string          `json:"transactionHash,omitempty"`
	Address            string          `json:"address,omitempty"`
	FPLName            string          `json:"fplName,omitempty"`
	FPLParams          *FPLParams      `json:"fplParams,omitempty"`
	FPLTransactionHash string          `json:"fplTransactionHash,omitempty"`
}
