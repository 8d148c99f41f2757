package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"freelance/internal/config"
)

func TestPublicURL(t *testing.T) {
	cfg := config.StorageConfig{Endpoint: "127.0.0.1:9000", BucketAvatars: "avatars"}
	assert.Equal(t, "http://127.0.0.1:9000/avatars/users/1/a.png", PublicURL(cfg, "users/1/a.png"))

	cfg.UseSSL = true
	assert.Equal(t, "https://127.0.0.1:9000/avatars/users/1/a.png", PublicURL(cfg, "/users/1/a.png"))

	cfg.PublicURL = "https://cdn.example.com/avatars/"
	assert.Equal(t, "https://cdn.example.com/avatars/users/1/a.png", PublicURL(cfg, "users/1/a.png"))
}

func TestKeyFromURL(t *testing.T) {
	cfg := config.StorageConfig{PublicURL: "https://cdn.example.com/avatars"}

	key, ok := KeyFromURL(cfg, "https://cdn.example.com/avatars/users/1/a.png")
	assert.True(t, ok)
	assert.Equal(t, "users/1/a.png", key)

	_, ok = KeyFromURL(cfg, "https://elsewhere.example.com/a.png")
	assert.False(t, ok)
}
