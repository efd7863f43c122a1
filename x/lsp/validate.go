package lsp

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sx-network/lsp-deployer/x/chain/contracts"
)

// Messages for the cross-field rules. They are part of the API surface.
const (
	msgBoundRequired      = "lowerBound or strikePrice required"
	msgUpperRequired      = "upperBound required"
	msgBaseRequired       = "basePercentage required"
	msgBoundConflict      = "you may specify lowerBound or strikePrice, but not both"
	msgLibraryUnspecified = "fpl or financialProductLibraryAddress required"
)

// plan is a validated request with every amount parsed to its on-chain form.
type plan struct {
	url      string
	mnemonic string
	simulate bool

	pairName          string
	expiration        uint64
	collateralPerPair *big.Int
	priceIdentifier   [32]byte
	longName          string
	longSymbol        string
	shortName         string
	shortSymbol       string
	collateral        common.Address

	fpl            string
	fplOverride    *common.Address
	lowerBound     *big.Int
	upperBound     *big.Int
	basePercentage *big.Int

	proposerReward *big.Int
	// proposerBond is nil when the Store final fee should be used.
	proposerBond    *big.Int
	liveness        *big.Int
	earlyExpiration bool
	ancillaryData   []byte

	creator  *common.Address
	gasPrice *big.Int
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// buildPlan checks req without touching the network. Struct tags are checked first,
// then amounts, then the financial product library rules in a fixed order.
func (s *Service) buildPlan(req DeployRequest) (*plan, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, validationError("invalid request").WithCause(err)
		}
		e := validationError("invalid request")
		for _, fe := range verrs {
			e.WithField(fe.Field(), fe.Tag())
		}
		e.Message = fmt.Sprintf("invalid request: %s", describeFields(e.Fields))
		return nil, e
	}

	p := &plan{
		url:             strings.TrimSpace(req.URL),
		mnemonic:        req.Mnemonic,
		simulate:        req.Simulate,
		pairName:        req.PairName,
		expiration:      uint64(req.ExpirationTimestamp),
		longName:        req.LongSynthName,
		longSymbol:      req.LongSynthSymbol,
		shortName:       req.ShortSynthName,
		shortSymbol:     req.ShortSynthSymbol,
		collateral:      common.HexToAddress(req.CollateralToken),
		fpl:             strings.TrimSpace(req.FPL),
		earlyExpiration: req.EnableEarlyExpiration,
		ancillaryData:   []byte(req.CustomAncillaryData),
	}

	var err error
	if p.priceIdentifier, err = contracts.PriceIdentifier(req.PriceIdentifier); err != nil {
		return nil, validationError("%v", err).WithField("priceIdentifier", "bytes32")
	}

	amounts := []struct {
		field string
		in    *decimal.Decimal
		out   **big.Int
	}{
		{"collateralPerPair", req.CollateralPerPair, &p.collateralPerPair},
		{"lowerBound", req.LowerBound, &p.lowerBound},
		{"upperBound", req.UpperBound, &p.upperBound},
		{"strikePrice", req.StrikePrice, nil},
		{"basePercentage", req.BasePercentage, &p.basePercentage},
		{"proposerReward", req.ProposerReward, &p.proposerReward},
		{"optimisticOracleProposerBond", req.OptimisticOracleProposerBond, &p.proposerBond},
		{"optimisticOracleLivenessTime", req.OptimisticOracleLivenessTime, &p.liveness},
	}
	for _, a := range amounts {
		if a.in == nil {
			continue
		}
		v, err := toUint256(*a.in)
		if err != nil {
			return nil, validationError("%s: %v", a.field, err).WithField(a.field, "uint256")
		}
		if a.out != nil {
			*a.out = v
		}
	}

	switch {
	case p.fpl != "" && req.LowerBound == nil && req.StrikePrice == nil:
		return nil, validationError(msgBoundRequired).WithField("lowerBound", "required_with_fpl")
	case (p.fpl == contracts.FPLRangeBond || p.fpl == contracts.FPLLinear) && req.UpperBound == nil:
		return nil, validationError(msgUpperRequired).WithField("upperBound", "required_with_fpl")
	case p.fpl == contracts.FPLSuccessToken && req.BasePercentage == nil:
		return nil, validationError(msgBaseRequired).WithField("basePercentage", "required_with_fpl")
	case req.LowerBound != nil && req.StrikePrice != nil:
		return nil, validationError(msgBoundConflict).WithField("strikePrice", "excluded_with")
	case p.fpl == "" && req.FinancialProductLibraryAddress == "":
		return nil, validationError(msgLibraryUnspecified).WithField("fpl", "required_without")
	}

	// strikePrice is an alias of lowerBound for libraries without an upper bound.
	if p.lowerBound == nil && req.StrikePrice != nil {
		p.lowerBound, _ = toUint256(*req.StrikePrice)
	}

	if req.FinancialProductLibraryAddress != "" {
		addr := common.HexToAddress(req.FinancialProductLibraryAddress)
		p.fplOverride = &addr
	}
	if req.LSPCreatorAddress != "" {
		addr := common.HexToAddress(req.LSPCreatorAddress)
		p.creator = &addr
	}

	if p.proposerReward == nil {
		p.proposerReward = new(big.Int)
	}
	if p.liveness == nil {
		p.liveness = new(big.Int).SetUint64(s.cfg.DefaultLivenessSeconds)
	}

	gwei := decimal.NewFromFloat(s.chainCfg.DefaultGasPriceGwei)
	if req.GasPrice != nil {
		gwei = *req.GasPrice
	}
	if p.gasPrice, err = gweiToWei(gwei); err != nil {
		return nil, validationError("gasprice: %v", err).WithField("gasprice", "gwei")
	}

	return p, nil
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// toUint256 accepts whole, non-negative numbers that fit a uint256.
func toUint256(d decimal.Decimal) (*big.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("must not be negative, got %s", d)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("must be a whole number of base units, got %s", d)
	}
	v := d.BigInt()
	if v.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("does not fit in uint256")
	}
	return v, nil
}

// gweiToWei converts a GWEI price to wei, dropping anything below one wei.
func gweiToWei(gwei decimal.Decimal) (*big.Int, error) {
	if gwei.IsNegative() {
		return nil, fmt.Errorf("must not be negative, got %s", gwei)
	}
	return gwei.Shift(9).Truncate(0).BigInt(), nil
}

func describeFields(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s failed %s", f.Field, f.Rule))
	}
	return strings.Join(parts, ", ")
}
