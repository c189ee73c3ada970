package service

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/adilhusain01/campayn/internal/model"
)

// fakeStore is an in-memory SubmissionStore.
type fakeStore struct {
	mu      sync.Mutex
	subs    []model.Submission
	cutoffs []time.Time
	err     error
}

func (s *fakeStore) add(sub model.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

func (s *fakeStore) byID(id string) model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.ID == id {
			return sub
		}
	}
	return model.Submission{}
}

func (s *fakeStore) StaleVideoIDs(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.cutoffs = append(s.cutoffs, cutoff)
	seen := map[string]bool{}
	var ids []string
	for _, sub := range s.subs {
		if sub.LastMetricsUpdate.Before(cutoff) && !seen[sub.VideoID] {
			seen[sub.VideoID] = true
			ids = append(ids, sub.VideoID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fakeStore) UpdateMetricsByVideoID(_ context.Context, videoID string, u model.MetricsUpdate) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var campaigns []int64
	for i := range s.subs {
		if s.subs[i].VideoID != videoID {
			continue
		}
		s.subs[i].ViewCount = u.ViewCount
		s.subs[i].LikeCount = u.LikeCount
		s.subs[i].CommentCount = u.CommentCount
		s.subs[i].PerformanceScore = u.PerformanceScore
		s.subs[i].LastMetricsUpdate = u.UpdatedAt
		campaigns = append(campaigns, s.subs[i].CampaignID)
	}
	return campaigns, nil
}

func (s *fakeStore) TopByCampaign(_ context.Context, campaignID int64, limit int) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Submission
	for _, sub := range s.subs {
		if sub.CampaignID == campaignID {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformanceScore > out[j].PerformanceScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeFetcher returns canned metrics or errors per video id.
type fakeFetcher struct {
	mu      sync.Mutex
	metrics map[string]model.VideoMetrics
	errs    map[string]error
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		metrics: map[string]model.VideoMetrics{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeFetcher) FetchVideoMetrics(_ context.Context, videoID string) (model.VideoMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[videoID]++
	if err, ok := f.errs[videoID]; ok {
		return model.VideoMetrics{}, err
	}
	m, ok := f.metrics[videoID]
	if !ok {
		return model.VideoMetrics{}, errors.New("unexpected video " + videoID)
	}
	return m, nil
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// completeCall records one CompleteCampaign invocation.
type completeCall struct {
	id      *big.Int
	winners [3]common.Address
	rewards [3]*big.Int
}

// fakeContract is an in-memory campaign registry. infoHook, when set, can
// rewrite the info returned on the nth read of a campaign.
type fakeContract struct {
	mu        sync.Mutex
	campaigns map[string]model.CampaignInfo
	reads     map[string]int
	infoHook  func(id string, read int, info model.CampaignInfo) model.CampaignInfo
	sendErr   map[string]error
	reverted  map[string]bool
	listErr   error
	calls     []completeCall
	// influencers overrides the roster of a campaign; campaigns without an
	// entry list every test wallet.
	influencers map[string][]common.Address
	rosterErr   error
}

func newFakeContract() *fakeContract {
	return &fakeContract{
		campaigns: map[string]model.CampaignInfo{},
		reads:     map[string]int{},
		sendErr:   map[string]error{},
		reverted:  map[string]bool{},

		influencers: map[string][]common.Address{},
	}
}

func (c *fakeContract) addCampaign(id int64, end time.Time, reward int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bid := big.NewInt(id)
	c.campaigns[bid.String()] = model.CampaignInfo{
		ID:          bid,
		TotalReward: big.NewInt(reward),
		CampaignEnd: end,
		IsActive:    true,
	}
}

func (c *fakeContract) ActiveCampaignIDs(context.Context) ([]*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	var ids []*big.Int
	for _, info := range c.campaigns {
		if info.IsActive {
			ids = append(ids, new(big.Int).Set(info.ID))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	return ids, nil
}

func (c *fakeContract) CampaignInfo(_ context.Context, id *big.Int) (model.CampaignInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.String()
	info, ok := c.campaigns[key]
	if !ok {
		return model.CampaignInfo{}, errors.New("unknown campaign " + key)
	}
	c.reads[key]++
	if c.infoHook != nil {
		info = c.infoHook(key, c.reads[key], info)
	}
	return info, nil
}

func (c *fakeContract) CampaignInfluencers(_ context.Context, id *big.Int) ([]common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rosterErr != nil {
		return nil, c.rosterErr
	}
	if roster, ok := c.influencers[id.String()]; ok {
		return roster, nil
	}
	roster := make([]common.Address, 0, 64)
	for n := 0; n < 64; n++ {
		roster = append(roster, common.HexToAddress(wallet(n)))
	}
	return roster, nil
}

func (c *fakeContract) CompleteCampaign(_ context.Context, id *big.Int, winners [3]common.Address, rewards [3]*big.Int) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.String()
	c.calls = append(c.calls, completeCall{id: id, winners: winners, rewards: rewards})
	if err := c.sendErr[key]; err != nil {
		return nil, err
	}
	r := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.BigToHash(big.NewInt(int64(len(c.calls)))),
		BlockNumber: big.NewInt(100),
	}
	if c.reverted[key] {
		r.Status = types.ReceiptStatusFailed
		return r, nil
	}
	// isActive is left set, like a registry that lists campaigns until
	// someone archives them.
	info := c.campaigns[key]
	info.IsCompleted = true
	c.campaigns[key] = info
	return r, nil
}

func (c *fakeContract) txCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// fakeCache is an in-memory LeaderboardCache and Locker.
type fakeCache struct {
	mu          sync.Mutex
	boards      map[int64][]byte
	invalidated []int64
	held        map[string]bool
	gets, sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{boards: map[int64][]byte{}, held: map[string]bool{}}
}

func (c *fakeCache) GetLeaderboard(_ context.Context, campaignID int64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.boards[campaignID], nil
}

func (c *fakeCache) SetLeaderboard(_ context.Context, campaignID int64, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	b, err := jsonMarshal(data)
	if err != nil {
		return err
	}
	c.boards[campaignID] = b
	return nil
}

func (c *fakeCache) InvalidateLeaderboard(_ context.Context, campaignID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, campaignID)
	c.invalidated = append(c.invalidated, campaignID)
	return nil
}

func (c *fakeCache) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[key] {
		return nil, false, nil
	}
	c.held[key] = true
	return func(context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.held, key)
		return nil
	}, true, nil
}

// capturePublisher records published event types.
type capturePublisher struct {
	mu    sync.Mutex
	types []string
	keys  []string
}

func (p *capturePublisher) Publish(_ context.Context, eventType string, _ []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	p.keys = append(p.keys, partitionKey)
	return nil
}

func (p *capturePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.types {
		if t == eventType {
			n++
		}
	}
	return n
}

// countingRecorder tallies outcomes.
type countingRecorder struct {
	mu          sync.Mutex
	refresh     map[string]int
	settlement  map[string]int
	jobs        map[string]int
	jobFailures map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		refresh:     map[string]int{},
		settlement:  map[string]int{},
		jobs:        map[string]int{},
		jobFailures: map[string]int{},
	}
}

func (r *countingRecorder) RecordRefresh(o string) {
	r.mu.Lock()
	r.refresh[o]++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordSettlement(o string) {
	r.mu.Lock()
	r.settlement[o]++
	r.mu.Unlock()
}

func (r *countingRecorder) ObserveJob(job string, _ time.Duration, err error) {
	r.mu.Lock()
	r.jobs[job]++
	if err != nil {
		r.jobFailures[job]++
	}
	r.mu.Unlock()
}
