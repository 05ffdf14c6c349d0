package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopcore-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisHost   = "127.0.0.1"
	defaultRedisPort   = 6379
	defaultRedisPrefix = "shopcore"
	redisDialTimeout   = 3 * time.Second
	redisIOTimeout     = time.Second
)

// store 进程级 Redis 连接，未启用时所有读写退化为空操作
type store struct {
	mu     sync.RWMutex
	client *redis.Client
	prefix string
}

var shared = &store{prefix: defaultRedisPrefix}

// InitRedis 初始化 Redis 客户端，未启用时保持关闭状态
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		return Close()
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultRedisPort
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisIOTimeout,
		WriteTimeout: redisIOTimeout,
	})

	shared.mu.Lock()
	previous := shared.client
	shared.client = client
	shared.prefix = prefix
	shared.mu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

func (s *store) get() (*redis.Client, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client, s.prefix
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	client, _ := shared.get()
	return client != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	client, _ := shared.get()
	return client
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	client, prefix := shared.get()
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, buildKey(prefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	client, prefix := shared.get()
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, buildKey(prefix, key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	client, prefix := shared.get()
	if client == nil {
		return nil
	}
	return client.Del(ctx, buildKey(prefix, key)).Err()
}

// Ping 检查 Redis 连通性，未启用时返回 nil
func Ping(ctx context.Context) error {
	client, _ := shared.get()
	if client == nil {
		return nil
	}
	return client.Ping(ctx).Err()
}

// Close 关闭 Redis 客户端
func Close() error {
	shared.mu.Lock()
	client := shared.client
	shared.client = nil
	shared.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

func buildKey(prefix, key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return prefix
	}
	return prefix + ":" + trimmed
}
