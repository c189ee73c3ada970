package service

import "errors"

var (
	// ErrSettlementTransactionFailed means the completion transaction could
	// not be sent or was reverted. The chain flag is still unset, so the
	// campaign is retried on the next cycle.
	ErrSettlementTransactionFailed = errors.New("settlement transaction failed")
	// ErrInsufficientParticipants is a deliberate skip: fewer than three
	// submissions exist for an ended campaign.
	ErrInsufficientParticipants = errors.New("insufficient participants")
	// ErrUnregisteredWinner means a top submission's wallet is not on the
	// campaign's on-chain influencer roster.
	ErrUnregisteredWinner = errors.New("winner not registered for campaign")
	// ErrInvalidReward means the on-chain total cannot be split.
	ErrInvalidReward = errors.New("invalid reward amount")
	// ErrInvalidVideoReference means no video id could be extracted.
	ErrInvalidVideoReference = errors.New("invalid video reference")
)
