package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "chatImages/room1/1700000000000_photo.png",
		ObjectName("chatImages/room1", "photo.png", "image/png", now))
	assert.Equal(t, "goldStamps/1700000000000_u1_stamp.jpg",
		ObjectName("/goldStamps/", "../u1_stamp.jpeg", "image/jpeg", now))

	generated := ObjectName("chatImages/room1", "", "application/octet-stream", now)
	assert.True(t, strings.HasPrefix(generated, "chatImages/room1/1700000000000_"))
	assert.True(t, strings.HasSuffix(generated, ".bin"))
}
