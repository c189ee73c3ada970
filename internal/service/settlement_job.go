package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/adilhusain01/campayn/internal/events"
	"github.com/adilhusain01/campayn/internal/model"
)

// WinnerCount is the number of ranked submissions paid at settlement.
const WinnerCount = 3

// SettlementOutcome is the result of evaluating one campaign.
type SettlementOutcome string

const (
	OutcomeNotEnded                 SettlementOutcome = "not_ended"
	OutcomeAlreadyCompleted         SettlementOutcome = "already_completed"
	OutcomeInsufficientParticipants SettlementOutcome = "insufficient_participants"
	OutcomeCompletedConcurrently    SettlementOutcome = "completed_concurrently"
	OutcomeLocked                   SettlementOutcome = "locked"
	OutcomeSettled                  SettlementOutcome = "settled"
	OutcomeFailed                   SettlementOutcome = "failed"
)

// CampaignResult is one entry of a SettlementReport.
type CampaignResult struct {
	CampaignID string
	Outcome    SettlementOutcome
	Settlement *model.Settlement
	Err        error
}

// SettlementReport lists what happened to every active campaign in one run.
type SettlementReport struct {
	Results  []CampaignResult
	Duration time.Duration
}

// Count returns how many campaigns ended with outcome o.
func (r SettlementReport) Count(o SettlementOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// SettlementJob pays out ended campaigns on chain, at most once each.
type SettlementJob struct {
	contract CampaignContract
	store    SubmissionStore
	locker   Locker
	lockTTL  time.Duration
	jobDeps
}

// NewSettlementJob creates the job. locker may be nil for a single replica.
func NewSettlementJob(contract CampaignContract, store SubmissionStore, locker Locker, lockTTL time.Duration, opts ...JobOption) *SettlementJob {
	j := &SettlementJob{
		contract: contract,
		store:    store,
		locker:   locker,
		lockTTL:  lockTTL,
		jobDeps:  defaultDeps(),
	}
	for _, opt := range opts {
		opt(&j.jobDeps)
	}
	j.log = j.log.With().Str("component", "settlement-job").Logger()
	return j
}

// Task adapts Run for a Worker.
func (j *SettlementJob) Task() Task {
	return func(ctx context.Context) error {
		_, err := j.Run(ctx)
		return err
	}
}

// Run evaluates every active campaign. Per-campaign failures are recorded
// in the report; the error is only set when the active set cannot be read.
func (j *SettlementJob) Run(ctx context.Context) (SettlementReport, error) {
	start := j.now()
	var report SettlementReport

	ids, err := j.contract.ActiveCampaignIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list active campaigns: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		res := j.settle(ctx, id)
		j.recorder.RecordSettlement(string(res.Outcome))
		j.logResult(res)
		report.Results = append(report.Results, res)
	}

	report.Duration = j.now().Sub(start)
	j.log.Info().
		Int("active", len(ids)).
		Int("settled", report.Count(OutcomeSettled)).
		Int("pending_participants", report.Count(OutcomeInsufficientParticipants)).
		Int("failed", report.Count(OutcomeFailed)).
		Dur("elapsed", report.Duration).
		Msg("settlement run complete")
	return report, nil
}

func (j *SettlementJob) settle(ctx context.Context, id *big.Int) CampaignResult {
	res := CampaignResult{CampaignID: id.String()}
	fail := func(err error) CampaignResult {
		res.Outcome = OutcomeFailed
		res.Err = err
		j.emitFailure(ctx, res.CampaignID, err)
		return res
	}

	info, err := j.contract.CampaignInfo(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("read campaign: %w", err))
	}
	if !info.Ended(j.now()) {
		res.Outcome = OutcomeNotEnded
		return res
	}
	if info.IsCompleted {
		res.Outcome = OutcomeAlreadyCompleted
		return res
	}

	if !id.IsInt64() {
		return fail(fmt.Errorf("campaign id %s out of store range", id))
	}
	campaignID := id.Int64()

	top, err := j.store.TopByCampaign(ctx, campaignID, WinnerCount)
	if err != nil {
		return fail(fmt.Errorf("rank submissions: %w", err))
	}
	if len(top) < WinnerCount {
		res.Outcome = OutcomeInsufficientParticipants
		res.Err = fmt.Errorf("%w: %d of %d submissions", ErrInsufficientParticipants, len(top), WinnerCount)
		return res
	}

	var winners [WinnerCount]common.Address
	for i, sub := range top[:WinnerCount] {
		if !common.IsHexAddress(sub.WalletAddress) {
			return fail(fmt.Errorf("submission %s has invalid wallet %q", sub.ID, sub.WalletAddress))
		}
		winners[i] = common.HexToAddress(sub.WalletAddress)
	}

	roster, err := j.contract.CampaignInfluencers(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("read influencers: %w", err))
	}
	registered := make(map[common.Address]struct{}, len(roster))
	for _, addr := range roster {
		registered[addr] = struct{}{}
	}
	for i, w := range winners {
		if _, ok := registered[w]; !ok {
			return fail(fmt.Errorf("%w: submission %s wallet %s", ErrUnregisteredWinner, top[i].ID, w.Hex()))
		}
	}

	if j.locker != nil {
		unlock, ok, err := j.locker.TryLock(ctx, "settlement:"+res.CampaignID, j.lockTTL)
		if err != nil {
			return fail(fmt.Errorf("acquire settlement lock: %w", err))
		}
		if !ok {
			res.Outcome = OutcomeLocked
			return res
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				j.log.Warn().Err(err).Str("campaign_id", res.CampaignID).Msg("release settlement lock failed")
			}
		}()
	}

	// The completion transaction is not idempotent; the chain flag is re-read
	// right before sending it.
	fresh, err := j.contract.CampaignInfo(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("re-read campaign: %w", err))
	}
	if fresh.IsCompleted {
		res.Outcome = OutcomeCompletedConcurrently
		return res
	}

	rewards, err := SplitReward(fresh.TotalReward)
	if err != nil {
		return fail(err)
	}

	receipt, err := j.contract.CompleteCampaign(ctx, id, winners, rewards)
	if err == nil && (receipt == nil || receipt.Status != types.ReceiptStatusSuccessful) {
		err = errors.New("transaction reverted")
	}
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrSettlementTransactionFailed, err))
	}

	s := &model.Settlement{
		CampaignID:  res.CampaignID,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: blockNumber(receipt),
		SettledAt:   j.now(),
	}
	for i := range winners {
		s.Winners[i] = winners[i].Hex()
		s.Rewards[i] = rewards[i].String()
	}
	res.Outcome = OutcomeSettled
	res.Settlement = s

	if j.cache != nil {
		if err := j.cache.InvalidateLeaderboard(ctx, campaignID); err != nil {
			j.log.Warn().Err(err).Int64("campaign_id", campaignID).Msg("cache invalidate failed")
		}
	}
	err = events.Emit(ctx, j.publisher, events.EventCampaignSettled, res.CampaignID, events.CampaignSettled{
		CampaignID:  s.CampaignID,
		Winners:     s.Winners,
		Rewards:     s.Rewards,
		TxHash:      s.TxHash,
		BlockNumber: s.BlockNumber,
	})
	if err != nil {
		j.log.Warn().Err(err).Str("campaign_id", res.CampaignID).Msg("publish settlement event failed")
	}
	return res
}

func (j *SettlementJob) emitFailure(ctx context.Context, campaignID string, cause error) {
	err := events.Emit(ctx, j.publisher, events.EventSettlementFailed, campaignID, events.SettlementFailed{
		CampaignID: campaignID,
		Reason:     cause.Error(),
	})
	if err != nil {
		j.log.Warn().Err(err).Str("campaign_id", campaignID).Msg("publish failure event failed")
	}
}

func (j *SettlementJob) logResult(res CampaignResult) {
	switch res.Outcome {
	case OutcomeSettled:
		j.log.Info().
			Str("campaign_id", res.CampaignID).
			Str("tx_hash", res.Settlement.TxHash).
			Strs("winners", res.Settlement.Winners[:]).
			Strs("rewards", res.Settlement.Rewards[:]).
			Msg("campaign settled")
	case OutcomeFailed:
		j.log.Error().Err(res.Err).Str("campaign_id", res.CampaignID).Msg("settlement failed, will retry next cycle")
	case OutcomeInsufficientParticipants:
		j.log.Info().Err(res.Err).Str("campaign_id", res.CampaignID).Msg("not enough submissions, will retry next cycle")
	case OutcomeCompletedConcurrently, OutcomeLocked:
		j.log.Warn().Str("campaign_id", res.CampaignID).Str("outcome", string(res.Outcome)).Msg("settlement skipped")
	default:
		j.log.Debug().Str("campaign_id", res.CampaignID).Str("outcome", string(res.Outcome)).Msg("campaign not eligible")
	}
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
