package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/reviewchat-core/server/internal/agent/model"
	errx "github.com/reviewchat-core/server/internal/core/error"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// RedisConversationRepository stores each conversation as a Redis list of
// JSON-encoded messages. Every append touches the TTL, so retention is
// measured from the last activity rather than from conversation start.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl}
}

func historyKey(conversationID string) string {
	return "conversation:" + conversationID + ":messages"
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := historyKey(conversationID)
	if err := r.rdb.RPush(ctx, key, payload).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("redis append failed")
		return errx.WrapRedis(err)
	}
	if r.ttl <= 0 {
		return nil
	}
	touched, err := r.rdb.Expire(ctx, key, r.ttl).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("redis expire failed")
		return errx.WrapRedis(err)
	}
	if !touched {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("conversation key vanished before TTL touch")
	}
	return nil
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	key := historyKey(conversationID)
	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("redis history load failed")
		return nil, errx.WrapRedis(err)
	}

	history := &model.ConversationHistory{
		ConversationID: conversationID,
		Messages:       make([]*schema.Message, 0, len(rows)),
	}
	for i, row := range rows {
		var msg schema.Message
		if err := json.Unmarshal([]byte(row), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message %d of %s: %w", i, key, err)
		}
		history.Messages = append(history.Messages, &msg)
	}
	return history, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	if err := r.rdb.Del(ctx, historyKey(conversationID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	n, err := r.rdb.LLen(ctx, historyKey(conversationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
