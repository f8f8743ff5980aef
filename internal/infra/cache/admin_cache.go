// Package cache guarda no Redis a lista de usuários por papel. O core lê a
// lista de admins a cada notificação em massa.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const keyPrefix = "leads:agents:role:"

// AgentDirectoryCache implementa AgentDirectoryInterface. Só ListByRole passa
// pelo cache; disponibilidade muda o tempo todo e vai sempre ao banco.
type AgentDirectoryCache struct {
	Next   entity.AgentDirectoryInterface
	Client *redis.Client
	TTL    time.Duration
}

func NewAgentDirectoryCache(next entity.AgentDirectoryInterface, client *redis.Client, ttl time.Duration) *AgentDirectoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &AgentDirectoryCache{Next: next, Client: client, TTL: ttl}
}

// NewRedisClient aceita uma URL redis://.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL inválida: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("falha ao conectar no Redis: %w", err)
	}
	return client, nil
}

func (c *AgentDirectoryCache) FindByRoleAndAvailability(ctx context.Context, role entity.Role, availability entity.Availability) ([]*entity.Agent, error) {
	return c.Next.FindByRoleAndAvailability(ctx, role, availability)
}

func (c *AgentDirectoryCache) FindByID(ctx context.Context, id string) (*entity.Agent, error) {
	return c.Next.FindByID(ctx, id)
}

// ListByRole usa o Redis como cache. Erro no Redis não derruba a chamada: cai no banco.
func (c *AgentDirectoryCache) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Agent, error) {
	key := keyPrefix + string(role)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var agents []*entity.Agent
		if jsonErr := json.Unmarshal(raw, &agents); jsonErr == nil {
			return agents, nil
		}
		log.Printf("⚠️ Cache de usuários corrompido em %s, recarregando", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("⚠️ Redis indisponível (%v), lendo usuários do banco", err)
	}

	agents, err := c.Next.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(agents); err == nil {
		if err := c.Client.Set(ctx, key, body, c.TTL).Err(); err != nil {
			log.Printf("⚠️ Falha ao gravar cache %s: %v", key, err)
		}
	}
	return agents, nil
}

// Invalidate apaga a lista em cache do papel.
func (c *AgentDirectoryCache) Invalidate(ctx context.Context, role entity.Role) error {
	return c.Client.Del(ctx, keyPrefix+string(role)).Err()
}
