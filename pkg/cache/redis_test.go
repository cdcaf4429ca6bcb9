package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/vaccination-tracker-api/pkg/config"
)

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "ping redis")
}
