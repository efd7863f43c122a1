package lsp

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sx-network/lsp-deployer/x/chain"
	"github.com/sx-network/lsp-deployer/x/chain/contracts"
	"github.com/sx-network/lsp-deployer/x/registry"
	"github.com/sx-network/lsp-deployer/x/wallet"
)

// Resolver looks up UMA contract addresses for a network.
type Resolver interface {
	Address(networkID uint64, name string) (common.Address, error)
}

// Deployer runs LSP deployments.
type Deployer interface {
	Deploy(ctx context.Context, req DeployRequest) (*Deployment, error)
}

// Option configures a Service.
type Option func(*Service)

// WithDialer replaces chain.Dial, mainly for tests.
func WithDialer(d chain.Dialer) Option {
	return func(s *Service) {
		s.dial = d
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service validates deploy requests and drives the LongShortPairCreator and
// financial product library transactions for them.
type Service struct {
	cfg      Config
	chainCfg chain.Config
	registry Resolver
	dial     chain.Dialer
	metrics  *Metrics
	log      zerolog.Logger

	validate *validator.Validate
	creator  *contracts.LSPCreatorBinding
	store    *contracts.StoreBinding
}

var _ Deployer = (*Service)(nil)

// NewService builds a Service. The contract ABIs are parsed once here.
func NewService(cfg Config, chainCfg chain.Config, reg Resolver, log zerolog.Logger, opts ...Option) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("address registry is required")
	}

	creator, err := contracts.NewLSPCreatorBinding()
	if err != nil {
		return nil, err
	}
	store, err := contracts.NewStoreBinding()
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		chainCfg: chainCfg,
		registry: reg,
		dial:     chain.Dial,
		log:      log.With().Str("component", "lsp-deployer").Logger(),
		validate: newValidator(),
		creator:  creator,
		store:    store,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s, nil
}

// Deploy validates req, simulates createLongShortPair and, unless req.Simulate is
// set, submits it followed by the financial product library parameters.
func (s *Service) Deploy(ctx context.Context, req DeployRequest) (*Deployment, error) {
	start := time.Now()
	s.metrics.InFlight.Inc()
	defer s.metrics.InFlight.Dec()

	d, err := s.deploy(ctx, req)

	outcome, kind := "deployed", ""
	switch {
	case err != nil:
		outcome = "failed"
		if k, ok := KindOf(err); ok {
			kind = k.String()
		}
	case d.Simulated:
		outcome = "simulated"
	}
	s.metrics.DeploymentsTotal.WithLabelValues(outcome, kind).Inc()
	s.metrics.DeploymentDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return d, err
}

//nolint:gocyclo // linear orchestration, splitting it hides the order of calls
func (s *Service) deploy(ctx context.Context, req DeployRequest) (*Deployment, error) {
	p, err := s.buildPlan(req)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			for _, f := range e.Fields {
				s.metrics.ValidationFailures.WithLabelValues(f.Field).Inc()
			}
		}
		return nil, err
	}

	var key *wallet.Key
	if p.mnemonic != "" {
		key, err = wallet.DeriveKey(p.mnemonic, s.cfg.DerivationPath)
		if err != nil {
			s.metrics.ValidationFailures.WithLabelValues("mnemonic").Inc()
			return nil, validationError("invalid mnemonic").WithField("mnemonic", "bip39").WithCause(err)
		}
	}

	var deadline time.Time
	if s.cfg.DeployTimeout > 0 {
		deadline = time.Now().Add(s.cfg.DeployTimeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	url := p.url
	if url == "" {
		url = s.chainCfg.DefaultRPCURL
	}
	log := s.log.With().Str("url", url).Str("pair_name", p.pairName).Bool("simulate", p.simulate).Logger()

	dialCtx, cancelDial := context.WithTimeout(ctx, s.dialTimeout())
	client, err := s.dial(dialCtx, url)
	cancelDial()
	if err != nil {
		return nil, NewError(KindNetwork, "failed to connect to node").WithCause(err)
	}
	defer client.Close()

	var priv *ecdsa.PrivateKey
	if key != nil {
		priv = key.PrivateKey
	}
	tr, err := chain.NewTransactor(ctx, s.chainCfg, client, priv, log)
	if err != nil {
		return nil, NewError(KindNetwork, "failed to resolve sending account").WithCause(err)
	}

	networkID, err := client.NetworkID(ctx)
	if err != nil {
		return nil, NewError(KindNetwork, "failed to fetch network id").WithCause(err)
	}
	if !networkID.IsUint64() {
		return nil, NewError(KindNetwork, fmt.Sprintf("network id %s out of range", networkID))
	}

	d := &Deployment{NetworkID: networkID.Uint64(), Simulated: p.simulate}
	log = log.With().Uint64("network_id", d.NetworkID).Str("from", tr.From().Hex()).Logger()

	decimals, err := s.collateralDecimals(ctx, tr, p.collateral)
	if err != nil {
		return nil, err
	}
	d.Decimals = strconv.Itoa(int(decimals))

	finalFee, err := s.finalFee(ctx, tr, d.NetworkID, p.collateral)
	if err != nil {
		return nil, err
	}
	d.FinalFee = finalFee.String()

	bond := p.proposerBond
	if bond == nil {
		bond = finalFee
	}

	var fplAddr common.Address
	if p.fpl != "" {
		fplAddr, err = s.resolve(d.NetworkID, registry.FinancialProductLibrary(p.fpl))
		if err != nil {
			return nil, err
		}
		d.FPL = fplAddr.Hex()
	}

	library := fplAddr
	if p.fplOverride != nil {
		library = *p.fplOverride
	}

	params := contracts.CreatorParams{
		PairName:                     p.pairName,
		ExpirationTimestamp:          p.expiration,
		CollateralPerPair:            p.collateralPerPair,
		PriceIdentifier:              p.priceIdentifier,
		EnableEarlyExpiration:        p.earlyExpiration,
		LongSynthName:                p.longName,
		LongSynthSymbol:              p.longSymbol,
		ShortSynthName:               p.shortName,
		ShortSynthSymbol:             p.shortSymbol,
		CollateralToken:              p.collateral,
		FinancialProductLibrary:      library,
		CustomAncillaryData:          p.ancillaryData,
		ProposerReward:               p.proposerReward,
		OptimisticOracleLivenessTime: p.liveness,
		OptimisticOracleProposerBond: bond,
	}
	d.Params = paramsView(params)

	creatorAddr, err := s.creatorAddress(d.NetworkID, p.creator)
	if err != nil {
		return nil, err
	}
	d.LSPCreatorAddress = creatorAddr.Hex()

	opts := chain.TxOptions{Gas: s.chainCfg.GasLimit, GasPrice: p.gasPrice, From: tr.From()}
	d.TransactionOptions = opts

	calldata, err := s.creator.BuildCreateCalldata(params)
	if err != nil {
		return nil, validationError("invalid creator parameters").WithCause(err)
	}

	log.Info().Str("creator", d.LSPCreatorAddress).Msg("Simulating deployment")
	out, err := tr.Call(ctx, creatorAddr, calldata, &opts)
	if err != nil {
		return nil, NewError(KindSimulation, "createLongShortPair simulation failed").WithCause(err)
	}
	simulated, err := s.creator.DecodeCreateResult(out)
	if err != nil {
		return nil, NewError(KindSimulation, "unexpected createLongShortPair simulation result").WithCause(err)
	}
	d.SimulatedAddress = simulated.Hex()

	pairAddr := simulated
	if !p.simulate {
		hash, err := tr.Send(ctx, creatorAddr, calldata, opts)
		if err != nil {
			s.metrics.TransactionsTotal.WithLabelValues("create", "failed").Inc()
			return nil, NewError(KindTransaction, "createLongShortPair transaction failed").WithCause(err)
		}
		d.TransactionHash = hash.Hex()

		// The pair creation is on its way; finish the sequence even if the caller goes away.
		var cancel context.CancelFunc
		ctx, cancel = detach(ctx, deadline)
		defer cancel()

		receipt, err := s.confirm(ctx, tr, hash)
		if err != nil {
			s.metrics.TransactionsTotal.WithLabelValues("create", "failed").Inc()
			return d, NewError(KindTransaction, "createLongShortPair transaction failed").WithCause(err)
		}
		s.metrics.TransactionsTotal.WithLabelValues("create", "success").Inc()

		created, err := s.creator.CreatedPairFromReceipt(creatorAddr, receipt)
		if err != nil {
			return d, NewError(KindTransaction, "failed to read deployed pair address").WithCause(err)
		}
		pairAddr = created.LongShortPair
		d.Address = pairAddr.Hex()

		log.Info().
			Str("tx_hash", d.TransactionHash).
			Str("address", d.Address).
			Msg("Long short pair deployed")
	}

	if p.fpl == "" {
		return d, nil
	}

	d.FPLName = registry.FinancialProductLibrary(p.fpl)
	fplParams, fplData, err := fplCall(p, pairAddr)
	if err != nil {
		return nil, validationError("invalid financial product library parameters").WithCause(err)
	}
	if fplParams == nil {
		log.Warn().Str("fpl", p.fpl).Msg("No parameter layout known for financial product library, skipping")
		return d, nil
	}
	d.FPLParams = fplParams

	if p.simulate {
		return d, nil
	}

	// The pair exists at this point; every failure below reports it alongside the error.
	hash, err := tr.Send(ctx, fplAddr, fplData, opts)
	if err != nil {
		s.metrics.TransactionsTotal.WithLabelValues("fpl_params", "failed").Inc()
		s.metrics.PairsWithoutParams.Inc()
		return d, NewError(KindTransaction, "setLongShortPairParameters transaction failed").WithCause(err)
	}
	d.FPLTransactionHash = hash.Hex()

	if _, err := s.confirm(ctx, tr, hash); err != nil {
		s.metrics.TransactionsTotal.WithLabelValues("fpl_params", "failed").Inc()
		s.metrics.PairsWithoutParams.Inc()
		return d, NewError(KindTransaction, "setLongShortPairParameters transaction failed").WithCause(err)
	}
	s.metrics.TransactionsTotal.WithLabelValues("fpl_params", "success").Inc()

	log.Info().
		Str("fpl", d.FPLName).
		Stringer("shape", contracts.ShapeOf(p.fpl)).
		Str("tx_hash", d.FPLTransactionHash).
		Msg("Financial product library parameters set")

	return d, nil
}

func (s *Service) confirm(ctx context.Context, tr *chain.Transactor, hash common.Hash) (*types.Receipt, error) {
	start := time.Now()
	defer func() { s.metrics.ReceiptWait.Observe(time.Since(start).Seconds()) }()
	return tr.Confirm(ctx, hash)
}

// detach drops the caller's cancellation from ctx while keeping the deployment deadline.
func detach(ctx context.Context, deadline time.Time) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if deadline.IsZero() {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline)
}

func (s *Service) dialTimeout() time.Duration {
	if s.chainCfg.DialTimeout > 0 {
		return s.chainCfg.DialTimeout
	}
	return chain.DefaultConfig().DialTimeout
}

func (s *Service) resolve(networkID uint64, name string) (common.Address, error) {
	addr, err := s.registry.Address(networkID, name)
	if err != nil {
		return common.Address{}, NewError(KindResolution, fmt.Sprintf("no %s address for network %d", name, networkID)).
			WithCause(err)
	}
	return addr, nil
}

func (s *Service) creatorAddress(networkID uint64, override *common.Address) (common.Address, error) {
	if override != nil {
		return *override, nil
	}
	return s.resolve(networkID, registry.LSPCreatorContract)
}

func (s *Service) collateralDecimals(ctx context.Context, tr *chain.Transactor, collateral common.Address) (uint8, error) {
	data, err := contracts.DecimalsCalldata()
	if err != nil {
		return 0, NewError(KindNetwork, "failed to encode decimals call").WithCause(err)
	}
	out, err := tr.Call(ctx, collateral, data, nil)
	if err != nil {
		return 0, NewError(KindNetwork, "failed to read collateral decimals").WithCause(err)
	}
	decimals, err := contracts.DecodeDecimals(out)
	if err != nil {
		return 0, NewError(KindNetwork, "collateral token does not implement decimals()").WithCause(err)
	}
	return decimals, nil
}

func (s *Service) finalFee(ctx context.Context, tr *chain.Transactor, networkID uint64, collateral common.Address) (*big.Int, error) {
	storeAddr, err := s.resolve(networkID, registry.StoreContract)
	if err != nil {
		return nil, err
	}
	data, err := s.store.BuildFinalFeeCalldata(collateral)
	if err != nil {
		return nil, NewError(KindNetwork, "failed to encode computeFinalFee call").WithCause(err)
	}
	out, err := tr.Call(ctx, storeAddr, data, nil)
	if err != nil {
		return nil, NewError(KindNetwork, "failed to read final fee").WithCause(err)
	}
	fee, err := s.store.DecodeFinalFee(out)
	if err != nil {
		return nil, NewError(KindNetwork, "failed to decode final fee").WithCause(err)
	}
	return fee, nil
}

// fplCall returns the reported parameters and calldata of setLongShortPairParameters
// for the plan's library family. Both are nil for families without a known layout.
func fplCall(p *plan, pair common.Address) (*FPLParams, []byte, error) {
	lower := p.lowerBound
	switch contracts.ShapeOf(p.fpl) {
	case contracts.FPLShapeStrike:
		data, err := contracts.SetStrikeParamsCalldata(pair, lower)
		if err != nil {
			return nil, nil, err
		}
		return &FPLParams{Address: pair.Hex(), LowerBound: lower.String()}, data, nil
	case contracts.FPLShapeRange:
		data, err := contracts.SetRangeParamsCalldata(pair, p.upperBound, lower)
		if err != nil {
			return nil, nil, err
		}
		return &FPLParams{Address: pair.Hex(), UpperBound: p.upperBound.String(), LowerBound: lower.String()}, data, nil
	case contracts.FPLShapeSuccess:
		data, err := contracts.SetSuccessParamsCalldata(pair, lower, p.basePercentage)
		if err != nil {
			return nil, nil, err
		}
		return &FPLParams{
			Address:        pair.Hex(),
			LowerBound:     lower.String(),
			BasePercentage: p.basePercentage.String(),
		}, data, nil
	default:
		return nil, nil, nil
	}
}

func paramsView(c contracts.CreatorParams) Params {
	return Params{
		PairName:                     c.PairName,
		ExpirationTimestamp:          c.ExpirationTimestamp,
		CollateralPerPair:            c.CollateralPerPair.String(),
		PriceIdentifier:              hexutil.Encode(c.PriceIdentifier[:]),
		LongSynthName:                c.LongSynthName,
		LongSynthSymbol:              c.LongSynthSymbol,
		ShortSynthName:               c.ShortSynthName,
		ShortSynthSymbol:             c.ShortSynthSymbol,
		CollateralToken:              c.CollateralToken.Hex(),
		FinancialProductLibrary:      c.FinancialProductLibrary.Hex(),
		CustomAncillaryData:          hexutil.Encode(c.CustomAncillaryData),
		ProposerReward:               c.ProposerReward.String(),
		OptimisticOracleLivenessTime: c.OptimisticOracleLivenessTime.String(),
		OptimisticOracleProposerBond: c.OptimisticOracleProposerBond.String(),
		EnableEarlyExpiration:        c.EnableEarlyExpiration,
	}
}
