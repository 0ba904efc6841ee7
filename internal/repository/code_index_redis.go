package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type redisCodeIndex struct {
	client *redis.Client
}

func NewRedisCodeIndex(client *redis.Client) CodeIndex {
	return &redisCodeIndex{client: client}
}

func (i *redisCodeIndex) Reserve(ctx context.Context, code, ownerUID string) (bool, error) {
	return i.client.SetNX(ctx, codeIndexKey(code), ownerUID, 0).Result()
}

func (i *redisCodeIndex) Owner(ctx context.Context, code string) (string, error) {
	val, err := i.client.Get(ctx, codeIndexKey(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (i *redisCodeIndex) Release(ctx context.Context, code string) error {
	return i.client.Del(ctx, codeIndexKey(code)).Err()
}
