package goVerify

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordVersionV1 = 1

	// A terminal transition can land after RetainUntil already passed
	// (e.g. the expiry transition itself). The write still needs a
	// positive TTL so the flagged state survives long enough to be read.
	terminalWriteGrace = time.Minute

	// How many newest index entries LatestByDestination inspects before
	// concluding the destination has no live record. Dangling entries are
	// removed as they are found.
	latestScanDepth = 8
)

// RedisStore is the production [Store]: record values keyed by token with
// a TTL backstop, plus a per-destination sorted set scored by creation
// time serving as the secondary index for throttling and latest-record
// lookups.
//
// AtomicUpdate uses WATCH/MULTI optimistic transactions, retried once on
// a lost race before surfacing [ErrConflict].
type RedisStore struct {
	redis          redis.UniversalClient
	prefix         string
	indexRetention time.Duration
}

// NewRedisStore creates a [RedisStore]. indexRetention bounds how long
// destination index entries are kept; it must cover the largest throttle
// window and verified-retention TTL across channels.
func NewRedisStore(redisClient redis.UniversalClient, prefix string, indexRetention time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gv"
	}
	if indexRetention <= 0 {
		indexRetention = 24 * time.Hour
	}
	return &RedisStore{
		redis:          redisClient,
		prefix:         prefix,
		indexRetention: indexRetention,
	}
}

func normalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return "0"
	}
	return tenantID
}

func (s *RedisStore) recordKey(tenantID, token string) string {
	return s.prefix + ":r:" + normalizeTenantID(tenantID) + ":" + token
}

func (s *RedisStore) indexKey(tenantID string, channel Channel, destination string) string {
	return s.prefix + ":d:" + normalizeTenantID(tenantID) + ":" + channel.String() + ":" + destination
}

// Put describes the put operation and its observable behavior.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
// Put does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Put(ctx context.Context, record *Record, ttl time.Duration) error {
	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = terminalWriteGrace
	}

	key := s.recordKey(record.TenantID, record.Token)
	index := s.indexKey(record.TenantID, record.Channel, record.Destination)
	horizon := record.CreatedAt - s.indexRetention.Milliseconds()

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, encoded, ttl)
		pipe.ZAdd(ctx, index, redis.Z{Score: float64(record.CreatedAt), Member: record.Token})
		pipe.ZRemRangeByScore(ctx, index, "-inf", strconv.FormatInt(horizon, 10))
		pipe.Expire(ctx, index, s.indexRetention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// GetByToken describes the getbytoken operation and its observable behavior.
//
// GetByToken may return an error when input validation, dependency calls, or security checks fail.
// GetByToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) GetByToken(ctx context.Context, tenantID, token string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.recordKey(tenantID, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	record.Token = token
	record.TenantID = normalizeTenantID(tenantID)
	return record, nil
}

// ListByDestination describes the listbydestination operation and its observable behavior.
//
// ListByDestination may return an error when input validation, dependency calls, or security checks fail.
// ListByDestination does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) ListByDestination(
	ctx context.Context,
	tenantID string,
	channel Channel,
	destination string,
	since time.Time,
) ([]*Record, error) {
	index := s.indexKey(tenantID, channel, destination)

	tokens, err := s.redis.ZRangeByScore(ctx, index, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = s.recordKey(tenantID, token)
	}

	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	records := make([]*Record, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Evicted by the TTL backstop; the index entry is stale.
			continue
		}
		record, err := decodeRecord([]byte(raw))
		if err != nil {
			continue
		}
		record.Token = tokens[i]
		record.TenantID = normalizeTenantID(tenantID)
		records = append(records, record)
	}

	return records, nil
}

// LatestByDestination describes the latestbydestination operation and its observable behavior.
//
// LatestByDestination may return an error when input validation, dependency calls, or security checks fail.
// LatestByDestination does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) LatestByDestination(
	ctx context.Context,
	tenantID string,
	channel Channel,
	destination string,
) (*Record, error) {
	index := s.indexKey(tenantID, channel, destination)

	tokens, err := s.redis.ZRevRange(ctx, index, 0, latestScanDepth-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, token := range tokens {
		record, err := s.GetByToken(ctx, tenantID, token)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, ErrTokenNotFound) {
			return nil, err
		}
		// Self-heal: drop the dangling index member and fall through to
		// the next-newest entry.
		_ = s.redis.ZRem(ctx, index, token).Err()
	}

	return nil, ErrTokenNotFound
}

// AtomicUpdate describes the atomicupdate operation and its observable behavior.
//
// AtomicUpdate may return an error when input validation, dependency calls, or security checks fail.
// AtomicUpdate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) AtomicUpdate(ctx context.Context, tenantID, token string, fn Mutation) (*Record, error) {
	const maxTxAttempts = 2
	key := s.recordKey(tenantID, token)

	for i := 0; i < maxTxAttempts; i++ {
		var (
			updated *Record
			outcome error
		)

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeRecord(data)
			if err != nil {
				return err
			}
			record.Token = token
			record.TenantID = normalizeTenantID(tenantID)

			write, oerr := fn(record)
			updated = record
			outcome = oerr
			if !write {
				return nil
			}

			encoded, err := encodeRecord(record)
			if err != nil {
				return err
			}

			ttl := time.Until(time.UnixMilli(record.RetainUntil))
			if ttl <= 0 {
				ttl = terminalWriteGrace
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrTokenNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		return updated, outcome
	}

	return nil, ErrConflict
}

func encodeRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	buf.WriteByte(byte(record.Channel))
	buf.WriteByte(byte(record.Status))

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.MaxAttempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.RetainUntil); err != nil {
		return nil, err
	}

	if len(record.Destination) > 65535 {
		return nil, errors.New("verification record destination too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Destination))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Destination)
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid verification record version")
	}

	channel, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	status, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &Record{
		Channel: Channel(channel),
		Status:  Status(status),
	}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.MaxAttempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.RetainUntil); err != nil {
		return nil, err
	}

	var destLen uint16
	if err := binary.Read(reader, binary.BigEndian, &destLen); err != nil {
		return nil, err
	}

	destination := make([]byte, destLen)
	if _, err := io.ReadFull(reader, destination); err != nil {
		return nil, err
	}
	record.Destination = string(destination)

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
