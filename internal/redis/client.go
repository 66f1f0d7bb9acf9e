package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// ResolveToken looks up the user id that owns the given token hash. A token
// that is unknown or expired resolves to the empty string, not an error.
func (c *Client) ResolveToken(ctx context.Context, tokenHash string) (string, error) {
	userID, err := c.Get(ctx, TokenKey(tokenHash)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}
	return userID, nil
}

// TokenKey is the key under which the identity subsystem stores a
// connection token (sha256-hashed) mapped to the owning user id.
func TokenKey(tokenHash string) string {
	return fmt.Sprintf("chat:token:%s", tokenHash)
}
