package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/groupbuy/backend/internal/application/ranking"
)

const rankingKey = "ranking:groupbuy:orders"

// RedisRankingStore implements the ranking cache on a Redis sorted set.
// Scores are total ordered quantities; ZINCRBY keeps updates atomic across
// instances and ZREVRANGE serves the leaderboard reads.
type RedisRankingStore struct {
	client *redis.Client
	key    string
}

// NewRedisRankingStore creates a ranking store over an existing Redis client
func NewRedisRankingStore(client *redis.Client) *RedisRankingStore {
	return &RedisRankingStore{client: client, key: rankingKey}
}

// IncrementScore adds delta to a group buy's score and returns the new score
func (s *RedisRankingStore) IncrementScore(ctx context.Context, groupBuyID uuid.UUID, delta int) (int, error) {
	score, err := s.client.ZIncrBy(ctx, s.key, float64(delta), groupBuyID.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment ranking score: %w", err)
	}
	return int(score), nil
}

// SetScores replaces the whole sorted set with the given scores.
// The swap runs in a transaction so readers never see a half-built set.
func (s *RedisRankingStore) SetScores(ctx context.Context, scores map[uuid.UUID]int) error {
	members := make([]redis.Z, 0, len(scores))
	for id, score := range scores {
		members = append(members, redis.Z{Score: float64(score), Member: id.String()})
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, s.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace ranking scores: %w", err)
	}
	return nil
}

// Top returns the highest-scored group buys, best first
func (s *RedisRankingStore) Top(ctx context.Context, limit int) ([]ranking.Entry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}

	entries := make([]ranking.Entry, 0, len(results))
	for i, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		entries = append(entries, ranking.Entry{
			GroupBuyID: id,
			OrderCount: int(z.Score),
			Rank:       i + 1,
		})
	}
	return entries, nil
}

// Remove drops a group buy from the ranking
func (s *RedisRankingStore) Remove(ctx context.Context, groupBuyID uuid.UUID) error {
	if err := s.client.ZRem(ctx, s.key, groupBuyID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove from ranking: %w", err)
	}
	return nil
}

var _ ranking.Store = (*RedisRankingStore)(nil)
