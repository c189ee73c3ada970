package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// campaignManagerABI covers the methods the backend calls.
const campaignManagerABI = `[
  {"type":"function","name":"completeCampaign","stateMutability":"nonpayable",
   "inputs":[{"name":"campaignId","type":"uint256"},{"name":"winners","type":"address[3]"},{"name":"rewards","type":"uint256[3]"}],
   "outputs":[]},
  {"type":"function","name":"getCampaignInfo","stateMutability":"view",
   "inputs":[{"name":"campaignId","type":"uint256"}],
   "outputs":[{"name":"company","type":"address"},{"name":"totalReward","type":"uint256"},{"name":"registrationEnd","type":"uint256"},{"name":"campaignEnd","type":"uint256"},{"name":"isActive","type":"bool"},{"name":"isCompleted","type":"bool"},{"name":"influencerCount","type":"uint256"}]},
  {"type":"function","name":"getCampaignInfluencers","stateMutability":"view",
   "inputs":[{"name":"campaignId","type":"uint256"}],
   "outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getActiveCampaigns","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256[]"}]}
]`

const (
	methodComplete    = "completeCampaign"
	methodInfo        = "getCampaignInfo"
	methodInfluencers = "getCampaignInfluencers"
	methodActive      = "getActiveCampaigns"
)

var parsedABI = mustParseABI(campaignManagerABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("chain: invalid campaign manager ABI: " + err.Error())
	}
	return parsed
}
