package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// upsertScript appends the member with the next score unless it is already
// present, so renames keep their position.
var upsertScript = redis.NewScript(`
	if redis.call('ZSCORE', KEYS[1], ARGV[1]) == false then
		local maxScore = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
		local nextScore = 1
		if #maxScore > 0 then
			nextScore = tonumber(maxScore[2]) + 1
		end
		redis.call('ZADD', KEYS[1], nextScore, ARGV[1])
	end
	redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	redis.call('PEXPIRE', KEYS[2], ARGV[3])
	return 1
`)

var listScript = redis.NewScript(`
	local ids = redis.call('ZRANGE', KEYS[1], 0, -1)
	if #ids == 0 then
		return {}
	end
	return redis.call('HMGET', KEYS[2], unpack(ids))
`)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getPresenceKey(roomId string) string {
	return "room:" + roomId + ":presence"
}

func (r repo) getPresenceNamesKey(roomId string) string {
	return "room:" + roomId + ":presence:names"
}
