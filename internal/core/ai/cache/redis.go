package cache

import (
	"context"
	"fmt"

	"smoothy-backend/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// RedisService Redis 快取層
type RedisService struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewRedisService 創建 Redis 快取層
func NewRedisService(cfg *config.CacheConfig) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisService{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *RedisService) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("cache miss")
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	return val, nil
}

// Set 設置緩存
func (s *RedisService) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisService) Close() error {
	return s.client.Close()
}

// redisKey 生成 Redis 鍵
func (s *RedisService) redisKey(key string) string {
	return fmt.Sprintf("ai:response:%s", key)
}
