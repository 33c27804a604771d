package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptKeyPrefix = "gatehouse:attempt:"
	sessionKeyPrefix = "gatehouse:session:"

	// attemptTTL bounds how long an idle counter lingers; it is far longer than the lockout window.
	attemptTTL = 24 * time.Hour
)

// resetAttemptScript zeroes an existing counter and refreshes its TTL in one step,
// so a concurrent delete cannot leave a key without expiry behind.
// KEYS[1] counter key; ARGV[1] updated_at (unix ns); ARGV[2] ttl seconds.
var resetAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "attempts", 0, "updated_at", ARGV[1])
redis.call("EXPIRE", KEYS[1], ARGV[2])
return 1
`)

// createSessionScript writes a session hash and its absolute expiry together.
// KEYS[1] session key; ARGV[1] user id; ARGV[2] expires_at (unix ns); ARGV[3] expires_at (unix ms).
var createSessionScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "user_id", ARGV[1], "expires_at", ARGV[2])
redis.call("PEXPIREAT", KEYS[1], ARGV[3])
return 1
`)

// Redis implements AttemptStore and SessionStore on Redis hashes.
// Expiry is delegated to key TTLs, so the sweep methods have nothing to do.
type Redis struct {
	client *redis.Client
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func attemptKey(ip string) string { return attemptKeyPrefix + ip }
func sessionKey(id string) string { return sessionKeyPrefix + id }

func parseAttempt(ip string, fields map[string]string) (*LoginAttempt, error) {
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	n, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt attempts for %s: %w", ip, err)
	}
	ts, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt updated_at for %s: %w", ip, err)
	}
	return &LoginAttempt{IP: ip, Attempts: n, UpdatedAt: time.Unix(0, ts).UTC()}, nil
}

func (r *Redis) FindLoginAttempt(ctx context.Context, ip string) (*LoginAttempt, error) {
	fields, err := r.client.HGetAll(ctx, attemptKey(ip)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return parseAttempt(ip, fields)
}

// IncrementLoginAttempt runs HINCRBY and the timestamp update inside MULTI/EXEC.
func (r *Redis) IncrementLoginAttempt(ctx context.Context, ip string, at time.Time) (*LoginAttempt, error) {
	key := attemptKey(ip)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "attempts", 1)
		pipe.HSet(ctx, key, "updated_at", at.UnixNano())
		pipe.Expire(ctx, key, attemptTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return &LoginAttempt{IP: ip, Attempts: int(incr.Val()), UpdatedAt: at.UTC()}, nil
}

func (r *Redis) ResetLoginAttempt(ctx context.Context, ip string, at time.Time) error {
	ok, err := resetAttemptScript.Run(ctx, r.client, []string{attemptKey(ip)},
		at.UnixNano(), int64(attemptTTL/time.Second)).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if ok == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) DeleteLoginAttempt(ctx context.Context, ip string) error {
	if err := r.client.Del(ctx, attemptKey(ip)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *Redis) DeleteStaleLoginAttempts(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *Redis) CreateSession(ctx context.Context, s *Session) error {
	ok, err := createSessionScript.Run(ctx, r.client, []string{sessionKey(s.ID)},
		s.UserID, s.ExpiresAt.UnixNano(), s.ExpiresAt.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if ok == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *Redis) FindSession(ctx context.Context, id string) (*Session, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 || fields["expires_at"] == "" {
		return nil, ErrNotFound
	}
	ts, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: corrupt expires_at for session: %w", err)
	}
	return &Session{ID: id, UserID: fields["user_id"], ExpiresAt: time.Unix(0, ts).UTC()}, nil
}

func (r *Redis) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *Redis) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Wipe removes every key under the service prefixes.
func (r *Redis) Wipe(ctx context.Context) error {
	for _, prefix := range []string{attemptKeyPrefix, sessionKeyPrefix} {
		iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("redis error: %w", err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis error: %w", err)
		}
	}
	return nil
}
