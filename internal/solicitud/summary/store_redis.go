package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
)

var listDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "apertura_summary_list_duration_ms",
	Help:    "Latency of summary listings from Redis in milliseconds",
	Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
})

const (
	summaryKeyPrefix = "apertura:summary:"
	// indexKey is a sorted set of solicitud ids scored by creation time.
	indexKey = "apertura:summaries"
)

// putScript stores the summary only when it is newer than the stored one.
// KEYS: summary key, index key. ARGV: payload, version, ttl ms, score, member.
var putScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local stored = cjson.decode(current)
	if stored.version and tonumber(stored.version) >= tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
return 1
`)

// RedisStore keeps summaries as JSON strings plus a creation-time index so
// several API instances share one projection.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type RedisOption func(*RedisStore)

// WithTTL expires summaries that were not refreshed for d. Zero keeps them.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func summaryKey(solicitudID id.SolicitudID) string {
	return summaryKeyPrefix + solicitudID.String()
}

// Put writes the summary and its index entry atomically, unless the stored
// summary already has the same or a higher version.
func (s *RedisStore) Put(ctx context.Context, sum models.Summary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	keys := []string{summaryKey(sum.ID), indexKey}
	err = putScript.Run(ctx, s.client, keys,
		payload, sum.Version, s.ttl.Milliseconds(), sum.CreatedAt.UnixMilli(), sum.ID.String(),
	).Err()
	if err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, solicitudID id.SolicitudID) (models.Summary, error) {
	raw, err := s.client.Get(ctx, summaryKey(solicitudID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Summary{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Summary{}, fmt.Errorf("get summary: %w", err)
	}
	var sum models.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return models.Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return sum, nil
}

// List walks the index newest first. Index entries whose summary expired are
// pruned on the way.
func (s *RedisStore) List(ctx context.Context, filter Filter) ([]models.Summary, error) {
	start := time.Now()
	defer func() {
		listDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read summary index: %w", err)
	}
	if len(ids) == 0 {
		return []models.Summary{}, nil
	}

	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = summaryKeyPrefix + raw
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read summaries: %w", err)
	}

	out := make([]models.Summary, 0, len(values))
	var stale []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var sum models.Summary
		if err := json.Unmarshal([]byte(str), &sum); err != nil {
			return nil, fmt.Errorf("decode summary %s: %w", ids[i], err)
		}
		if filter.matches(sum) {
			out = append(out, sum)
		}
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, indexKey, stale...).Err(); err != nil {
			s.logger.WarnContext(ctx, "failed to prune expired summaries from index",
				"count", len(stale),
				"error", err,
			)
		}
	}
	sortNewestFirst(out)
	return out, nil
}
