// Package seasonchain reads the on-chain season registry contract. The
// registry is the economic source of truth for season numbers and vote
// totals; every read is rate limited and timeout bounded so an unreachable
// RPC endpoint degrades the caller instead of hanging it.
package seasonchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	"github.com/Permavault-Club/season-engine/internal/attr"
)

// registryABIJSON describes the two read functions the engine uses:
//   - currentSeason() returns the active season number
//   - getSeason(uint256) returns (startTime, endTime, active, totalVotes)
const registryABIJSON = `[{"inputs":[],"name":"currentSeason","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"uint256","name":"seasonNumber","type":"uint256"}],"name":"getSeason","outputs":[{"internalType":"uint256","name":"startTime","type":"uint256"},{"internalType":"uint256","name":"endTime","type":"uint256"},{"internalType":"bool","name":"active","type":"bool"},{"internalType":"uint256","name":"totalVotes","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var registryABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		panic(err)
	}
	registryABI = parsed
}

// ContractCaller is the narrow read surface of an Ethereum RPC client.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds the registry connection settings.
type Config struct {
	RPCURL          string
	RegistryAddress string
	Timeout         time.Duration
	RequestsPerSec  float64
}

// Registry reads season records from the on-chain registry contract.
type Registry struct {
	caller  ContractCaller
	address common.Address
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry dials the RPC endpoint and builds a Registry.
func NewRegistry(ctx context.Context, cfg Config, logger *slog.Logger) (*Registry, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("seasonchain.NewRegistry: dial %s: %w", cfg.RPCURL, err)
	}
	return NewRegistryWithCaller(cfg, client, logger)
}

// NewRegistryWithCaller builds a Registry around an existing caller. Tests
// inject a fake caller here.
func NewRegistryWithCaller(cfg Config, caller ContractCaller, logger *slog.Logger) (*Registry, error) {
	if !common.IsHexAddress(cfg.RegistryAddress) {
		return nil, fmt.Errorf("seasonchain.NewRegistryWithCaller: invalid registry address %q", cfg.RegistryAddress)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	return &Registry{
		caller:  caller,
		address: common.HexToAddress(cfg.RegistryAddress),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// CurrentSeasonNumber reads the registry's active season number.
func (r *Registry) CurrentSeasonNumber(ctx context.Context) (int64, error) {
	out, err := r.call(ctx, "currentSeason")
	if err != nil {
		return 0, err
	}
	number, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("seasonchain.CurrentSeasonNumber: unexpected output type %T", out[0])
	}
	return number.Int64(), nil
}

// SeasonInfo reads one season's record from the registry. A season the
// contract does not know yet comes back as (nil, nil), not an error.
func (r *Registry) SeasonInfo(ctx context.Context, number int64) (*seasonservice.AuthoritativeSeason, error) {
	out, err := r.call(ctx, "getSeason", big.NewInt(number))
	if err != nil {
		return nil, err
	}

	startTime, ok1 := out[0].(*big.Int)
	endTime, ok2 := out[1].(*big.Int)
	active, ok3 := out[2].(bool)
	totalVotes, ok4 := out[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("seasonchain.SeasonInfo: unexpected getSeason output shape")
	}

	// The contract returns a zeroed struct for unknown seasons.
	if startTime.Sign() == 0 && endTime.Sign() == 0 {
		return nil, nil
	}

	return &seasonservice.AuthoritativeSeason{
		Number:     number,
		Start:      time.Unix(startTime.Int64(), 0).UTC(),
		End:        time.Unix(endTime.Int64(), 0).UTC(),
		Active:     active,
		TotalVotes: totalVotes,
	}, nil
}

// call packs a method invocation, runs the rate-limited eth_call, and
// unpacks the outputs.
func (r *Registry) call(ctx context.Context, method string, args ...any) ([]any, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("seasonchain.%s: rate limiter: %w", method, err)
	}

	data, err := registryABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("seasonchain.%s: pack: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("seasonchain.%s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("seasonchain.%s: empty call result", method)
	}

	out, err := registryABI.Unpack(method, raw)
	if err != nil {
		r.logger.WarnContext(ctx, "Malformed registry call result",
			attr.String("method", method),
			attr.Error(err),
		)
		return nil, fmt.Errorf("seasonchain.%s: unpack: %w", method, err)
	}
	return out, nil
}

// Ensure the registry satisfies the resolver's authoritative source port.
var _ seasonservice.AuthoritativeSeasonSource = (*Registry)(nil)
