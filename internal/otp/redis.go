package otp

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix = "otp:code:"
	regKeyPrefix  = "otp:reg:"
)

// RedisCodeStore keeps pending codes in Redis hashes. Attempt counters
// use HINCRBY so concurrent verifies for the same email cannot lose
// updates; key expiry follows the code expiry.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore builds the store.
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Save(ctx context.Context, code Code) error {
	key := codeKeyPrefix + code.Email
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"purpose", string(code.Purpose),
		"code_hash", code.CodeHash,
		"expires_at", strconv.FormatInt(code.ExpiresAt.Unix(), 10),
		"attempts", strconv.Itoa(code.Attempts),
		"last_sent", strconv.FormatInt(code.LastSent.Unix(), 10),
	)
	pipe.ExpireAt(ctx, key, code.ExpiresAt)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisCodeStore) Find(ctx context.Context, email string) (*Code, error) {
	fields, err := s.client.HGetAll(ctx, codeKeyPrefix+email).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	attempts, _ := strconv.Atoi(fields["attempts"])
	expiresAt, _ := strconv.ParseInt(fields["expires_at"], 10, 64)
	lastSent, _ := strconv.ParseInt(fields["last_sent"], 10, 64)
	return &Code{
		Email:     email,
		Purpose:   Purpose(fields["purpose"]),
		CodeHash:  fields["code_hash"],
		ExpiresAt: time.Unix(expiresAt, 0),
		Attempts:  attempts,
		LastSent:  time.Unix(lastSent, 0),
	}, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, codeKeyPrefix+email).Err()
}

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	key := codeKeyPrefix + email
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, ErrNotFound
	}
	count, err := s.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Sweep is a no-op; Redis evicts expired keys itself.
func (s *RedisCodeStore) Sweep(context.Context, time.Time) error {
	return nil
}

// RedisRegistrationStore keeps pending registrations in Redis with the
// configured TTL.
type RedisRegistrationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistrationStore builds the store.
func NewRedisRegistrationStore(client *redis.Client, ttl time.Duration) *RedisRegistrationStore {
	return &RedisRegistrationStore{client: client, ttl: ttl}
}

func (s *RedisRegistrationStore) Save(ctx context.Context, reg Registration) error {
	key := regKeyPrefix + reg.Email
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"name", reg.Name,
		"department", reg.Department,
		"created_at", strconv.FormatInt(reg.CreatedAt.Unix(), 10),
	)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisRegistrationStore) Find(ctx context.Context, email string) (*Registration, error) {
	fields, err := s.client.HGetAll(ctx, regKeyPrefix+email).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	return &Registration{
		Email:      email,
		Name:       fields["name"],
		Department: fields["department"],
		CreatedAt:  time.Unix(createdAt, 0),
	}, nil
}

func (s *RedisRegistrationStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, regKeyPrefix+email).Err()
}

// Sweep is a no-op; Redis evicts expired keys itself.
func (s *RedisRegistrationStore) Sweep(context.Context, time.Time) error {
	return nil
}
