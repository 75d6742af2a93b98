package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialKeys(t *testing.T) {
	assert.Equal(t, "mail-password:alice@example.com", MailPasswordKey("alice@example.com"))
	assert.Equal(t, "redis-password:localhost:6379", RedisPasswordKey("localhost:6379"))
	assert.NotEqual(t, MailPasswordKey("a"), RedisPasswordKey("a"))
}
