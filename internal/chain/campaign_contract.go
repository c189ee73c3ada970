package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/adilhusain01/campayn/internal/model"
)

var (
	// ErrReadOnly means no settler key was configured.
	ErrReadOnly = errors.New("chain: contract is read-only, no signer configured")
	// ErrReverted means the transaction was mined with a failed status.
	ErrReverted = errors.New("chain: transaction reverted")
)

// Config holds connection settings for the campaign manager contract.
type Config struct {
	RPCURL         string
	ChainID        int64
	Address        string
	PrivateKey     string // hex, optional 0x prefix; empty means read-only
	CallTimeout    time.Duration
	ReceiptTimeout time.Duration
}

// CampaignContract talks to the on-chain campaign manager.
type CampaignContract struct {
	client         *ethclient.Client
	contract       *bind.BoundContract
	address        common.Address
	signer         *bind.TransactOpts
	callTimeout    time.Duration
	receiptTimeout time.Duration
	log            zerolog.Logger
}

// Dial connects to the RPC endpoint and binds the contract.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*CampaignContract, error) {
	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("chain: invalid contract address %q", cfg.Address)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	c := &CampaignContract{
		client:         client,
		address:        common.HexToAddress(cfg.Address),
		callTimeout:    cfg.CallTimeout,
		receiptTimeout: cfg.ReceiptTimeout,
		log:            log.With().Str("component", "chain").Logger(),
	}
	c.contract = bind.NewBoundContract(c.address, parsedABI, client, client, client)

	if cfg.PrivateKey != "" {
		key, err := ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			client.Close()
			return nil, err
		}
		signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("chain: build transactor: %w", err)
		}
		c.signer = signer
	}

	ev := c.log.Info().Str("contract", c.address.Hex()).Int64("chain_id", cfg.ChainID)
	if c.signer != nil {
		ev = ev.Str("settler", c.signer.From.Hex())
	}
	ev.Msg("contract bound")
	return c, nil
}

// ParsePrivateKey decodes a hex secp256k1 key.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: invalid settler key: %w", err)
	}
	return key, nil
}

// Close releases the RPC connection.
func (c *CampaignContract) Close() {
	c.client.Close()
}

// BlockNumber returns the latest block, used by health checks.
func (c *CampaignContract) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.client.BlockNumber(ctx)
}

// ActiveCampaignIDs calls getActiveCampaigns.
func (c *CampaignContract) ActiveCampaignIDs(ctx context.Context) ([]*big.Int, error) {
	out, err := c.call(ctx, methodActive)
	if err != nil {
		return nil, err
	}
	return decodeActive(out)
}

// CampaignInfo calls getCampaignInfo.
func (c *CampaignContract) CampaignInfo(ctx context.Context, id *big.Int) (model.CampaignInfo, error) {
	out, err := c.call(ctx, methodInfo, id)
	if err != nil {
		return model.CampaignInfo{}, err
	}
	return decodeCampaignInfo(id, out)
}

// CampaignInfluencers calls getCampaignInfluencers.
func (c *CampaignContract) CampaignInfluencers(ctx context.Context, id *big.Int) ([]common.Address, error) {
	out, err := c.call(ctx, methodInfluencers, id)
	if err != nil {
		return nil, err
	}
	return decodeInfluencers(out)
}

// CompleteCampaign sends completeCampaign and waits for the receipt. The
// receipt wait is bounded by the receipt timeout; a timeout does not mean
// the transaction failed, so callers must re-read isCompleted before any
// retry.
func (c *CampaignContract) CompleteCampaign(ctx context.Context, id *big.Int, winners [3]common.Address, rewards [3]*big.Int) (*types.Receipt, error) {
	if c.signer == nil {
		return nil, ErrReadOnly
	}

	sendCtx, cancel := c.withTimeout(ctx, c.callTimeout)
	opts := *c.signer
	opts.Context = sendCtx
	tx, err := c.contract.Transact(&opts, methodComplete, id, winners, rewards)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("chain: send %s(%s): %w", methodComplete, id, err)
	}
	c.log.Info().Str("campaign_id", id.String()).Str("tx_hash", tx.Hash().Hex()).Msg("settlement transaction sent")

	waitCtx, cancel := c.withTimeout(ctx, c.receiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("chain: wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

func (c *CampaignContract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	ctx, cancel := c.withTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}
	return out, nil
}

func (c *CampaignContract) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func decodeInfluencers(out []any) ([]common.Address, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: %s returned %d values", methodInfluencers, len(out))
	}
	addrs, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("chain: %s returned %T", methodInfluencers, out[0])
	}
	return addrs, nil
}

func decodeActive(out []any) ([]*big.Int, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: %s returned %d values", methodActive, len(out))
	}
	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: %s returned %T", methodActive, out[0])
	}
	return ids, nil
}

func decodeCampaignInfo(id *big.Int, out []any) (model.CampaignInfo, error) {
	if len(out) != 7 {
		return model.CampaignInfo{}, fmt.Errorf("chain: %s returned %d values", methodInfo, len(out))
	}
	company, ok1 := out[0].(common.Address)
	total, ok2 := out[1].(*big.Int)
	regEnd, ok3 := out[2].(*big.Int)
	end, ok4 := out[3].(*big.Int)
	active, ok5 := out[4].(bool)
	completed, ok6 := out[5].(bool)
	count, ok7 := out[6].(*big.Int)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return model.CampaignInfo{}, fmt.Errorf("chain: unexpected %s output types", methodInfo)
	}
	return model.CampaignInfo{
		ID:              id,
		Company:         company,
		TotalReward:     total,
		RegistrationEnd: unixTime(regEnd),
		CampaignEnd:     unixTime(end),
		IsActive:        active,
		IsCompleted:     completed,
		InfluencerCount: count.Uint64(),
	}, nil
}

// unixTime converts a uint256 seconds timestamp. Values past int64 clamp to
// the far future so a corrupt end time never looks ended.
func unixTime(v *big.Int) time.Time {
	if !v.IsInt64() {
		return time.Unix(1<<62, 0).UTC()
	}
	return time.Unix(v.Int64(), 0).UTC()
}
