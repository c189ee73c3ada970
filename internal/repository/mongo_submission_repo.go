package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/adilhusain01/campayn/internal/model"
)

const (
	submissionsCollection = "submissions"
	influencersCollection = "influencers"
)

// submissionDoc mirrors the submissions collection written by the intake
// service.
type submissionDoc struct {
	ID                  primitive.ObjectID `bson:"_id"`
	CampaignID          int64              `bson:"campaignId"`
	InfluencerID        primitive.ObjectID `bson:"influencerId"`
	VideoID             string             `bson:"youtubeVideoId"`
	VideoURL            string             `bson:"youtubeUrl"`
	ViewCount           int64              `bson:"viewCount"`
	LikeCount           int64              `bson:"likeCount"`
	CommentCount        int64              `bson:"commentCount"`
	PerformanceScore    float64            `bson:"performanceScore"`
	LastAnalyticsUpdate time.Time          `bson:"lastAnalyticsUpdate"`
	CreatedAt           time.Time          `bson:"createdAt"`
	Influencer          *influencerDoc     `bson:"influencer,omitempty"`
}

type influencerDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	WalletAddress string             `bson:"walletAddress"`
	ChannelID     string             `bson:"youtubeChannelId,omitempty"`
	ChannelName   string             `bson:"youtubeChannelName,omitempty"`
}

func (d submissionDoc) toModel() model.Submission {
	s := model.Submission{
		ID:                d.ID.Hex(),
		CampaignID:        d.CampaignID,
		InfluencerID:      d.InfluencerID.Hex(),
		VideoID:           d.VideoID,
		VideoURL:          d.VideoURL,
		ViewCount:         d.ViewCount,
		LikeCount:         d.LikeCount,
		CommentCount:      d.CommentCount,
		PerformanceScore:  d.PerformanceScore,
		LastMetricsUpdate: d.LastAnalyticsUpdate,
		CreatedAt:         d.CreatedAt,
	}
	if d.Influencer != nil {
		s.WalletAddress = d.Influencer.WalletAddress
		s.ChannelName = d.Influencer.ChannelName
	}
	return s
}

// MongoSubmissionRepo is the MongoDB submission store, compatible with the
// collections of the original Node.js service.
type MongoSubmissionRepo struct {
	client      *mongo.Client
	submissions *mongo.Collection
}

// NewMongoSubmissionRepo connects and pings the primary.
func NewMongoSubmissionRepo(ctx context.Context, uri, database string) (*MongoSubmissionRepo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoSubmissionRepo{
		client:      client,
		submissions: client.Database(database).Collection(submissionsCollection),
	}, nil
}

// EnsureIndexes creates the indexes the three query shapes rely on plus the
// (campaign, influencer) uniqueness guarantee.
func (r *MongoSubmissionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.submissions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "campaignId", Value: 1}, {Key: "influencerId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "campaignId", Value: 1}, {Key: "performanceScore", Value: -1}}},
		{Keys: bson.D{{Key: "lastAnalyticsUpdate", Value: 1}}},
		{Keys: bson.D{{Key: "youtubeVideoId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

func (r *MongoSubmissionRepo) StaleVideoIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	values, err := r.submissions.Distinct(ctx, "youtubeVideoId", bson.M{
		"lastAnalyticsUpdate": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MongoSubmissionRepo) UpdateMetricsByVideoID(ctx context.Context, videoID string, u model.MetricsUpdate) ([]int64, error) {
	filter := bson.M{"youtubeVideoId": videoID}

	values, err := r.submissions.Distinct(ctx, "campaignId", filter)
	if err != nil {
		return nil, err
	}

	_, err = r.submissions.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"viewCount":           u.ViewCount,
		"likeCount":           u.LikeCount,
		"commentCount":        u.CommentCount,
		"performanceScore":    u.PerformanceScore,
		"lastAnalyticsUpdate": u.UpdatedAt,
		"updatedAt":           u.UpdatedAt,
	}})
	if err != nil {
		return nil, err
	}

	campaigns := make([]int64, 0, len(values))
	for _, v := range values {
		if id, ok := toInt64(v); ok {
			campaigns = append(campaigns, id)
		}
	}
	return campaigns, nil
}

func (r *MongoSubmissionRepo) TopByCampaign(ctx context.Context, campaignID int64, limit int) ([]model.Submission, error) {
	cur, err := r.submissions.Aggregate(ctx, topByCampaignPipeline(campaignID, limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var subs []model.Submission
	for cur.Next(ctx) {
		var d submissionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		subs = append(subs, d.toModel())
	}
	return subs, cur.Err()
}

// Ping checks connectivity for health probes.
func (r *MongoSubmissionRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoSubmissionRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func topByCampaignPipeline(campaignID int64, limit int) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"campaignId": campaignID}}},
		{{Key: "$sort", Value: bson.D{{Key: "performanceScore", Value: -1}, {Key: "createdAt", Value: 1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return append(p,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         influencersCollection,
			"localField":   "influencerId",
			"foreignField": "_id",
			"as":           "influencer",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$influencer", "preserveNullAndEmptyArrays": true}}},
	)
}

// toInt64 accepts the numeric types a Number field can decode to.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
