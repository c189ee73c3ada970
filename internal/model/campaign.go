package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CampaignInfo is the authoritative on-chain view of a campaign.
type CampaignInfo struct {
	ID              *big.Int
	Company         common.Address
	TotalReward     *big.Int // wei
	RegistrationEnd time.Time
	CampaignEnd     time.Time
	IsActive        bool
	IsCompleted     bool
	InfluencerCount uint64
}

// Ended reports whether the campaign end timestamp has passed at now.
func (c CampaignInfo) Ended(now time.Time) bool {
	return !now.Before(c.CampaignEnd)
}

// Settlement records one completed payout.
type Settlement struct {
	CampaignID  string    `json:"campaignId"`
	Winners     [3]string `json:"winners"`
	Rewards     [3]string `json:"rewards"` // wei, decimal strings
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	SettledAt   time.Time `json:"settledAt"`
}
