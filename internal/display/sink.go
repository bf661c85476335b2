package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/skycast/internal/weather"
)

// DefaultTTL is how long an idle display keeps its last report.
const DefaultTTL = time.Hour

// Every script takes the same keys:
// KEYS[1] sequence counter, KEYS[2] published sequence, KEYS[3] report.
// The counter never drops below the published sequence, so a key that expired
// or was cleared cannot hand out a number older than one already in play.

// beginScript reserves max(counter, published)+1.
// ARGV[1] TTL in milliseconds
var beginScript = redis.NewScript(`
local seq = tonumber(redis.call('GET', KEYS[1]) or '0')
local last = tonumber(redis.call('GET', KEYS[2]) or '0')
if last > seq then
	seq = last
end
seq = seq + 1
redis.call('SET', KEYS[1], tostring(seq), 'PX', ARGV[1])
return seq
`)

// publishScript stores the report only if its sequence number is newer than
// the last one published for the display.
// ARGV[1] sequence, ARGV[2] report JSON, ARGV[3] TTL in milliseconds
var publishScript = redis.NewScript(`
local seq = tonumber(ARGV[1])
local last = tonumber(redis.call('GET', KEYS[2]) or '0')
if seq <= last then
	return 0
end
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[3])
redis.call('SET', KEYS[3], ARGV[2], 'PX', ARGV[3])
return 1
`)

// clearScript drops the report and marks every sequence reserved so far as
// published, so lookups already in flight cannot repopulate the display.
// ARGV[1] TTL in milliseconds
var clearScript = redis.NewScript(`
local seq = tonumber(redis.call('GET', KEYS[1]) or '0')
local last = tonumber(redis.call('GET', KEYS[2]) or '0')
if last > seq then
	seq = last
end
redis.call('DEL', KEYS[3])
if seq > 0 then
	redis.call('SET', KEYS[1], tostring(seq), 'PX', ARGV[1])
	redis.call('SET', KEYS[2], tostring(seq), 'PX', ARGV[1])
end
return seq
`)

// Sink holds the latest weather report shown on each display.
// Writes are last-write-wins by lookup sequence number.
type Sink struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSink constructs a Sink. A non-positive ttl uses DefaultTTL.
func NewSink(client *redis.Client, ttl time.Duration) *Sink {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sink{client: client, ttl: ttl}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func keys(id string) []string {
	prefix := "display:" + normalize(id)
	return []string{prefix + ":seq", prefix + ":published", prefix + ":report"}
}

func reportKey(id string) string { return keys(id)[2] }

// Begin reserves the sequence number for a new lookup on the display.
// Numbers only ever grow for a display, even across expiry and Clear.
func (s *Sink) Begin(ctx context.Context, id string) (int64, error) {
	seq, err := beginScript.Run(ctx, s.client, keys(id), s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("reserving sequence for display %s: %w", id, err)
	}
	return seq, nil
}

// Publish stores the report for the display unless a later lookup has already
// published. It reports whether the report was stored.
func (s *Sink) Publish(ctx context.Context, id string, seq int64, report *weather.Report) (bool, error) {
	if report == nil {
		return false, nil
	}

	b, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("marshaling report for display %s: %w", id, err)
	}

	stored, err := publishScript.Run(ctx, s.client,
		keys(id),
		seq, b, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("publishing report for display %s: %w", id, err)
	}

	return stored == 1, nil
}

// Get returns the latest report for the display.
// Returns nil, nil when nothing has been published (not an error).
func (s *Sink) Get(ctx context.Context, id string) (*weather.Report, error) {
	val, err := s.client.Get(ctx, reportKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading display %s: %w", id, err)
	}

	var report weather.Report
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, fmt.Errorf("unmarshaling report for display %s: %w", id, err)
	}

	return &report, nil
}

// Clear removes the display's report. Lookups begun before Clear are
// treated as stale and will not be shown.
func (s *Sink) Clear(ctx context.Context, id string) error {
	if err := clearScript.Run(ctx, s.client, keys(id), s.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("clearing display %s: %w", id, err)
	}
	return nil
}

// Ping checks the connection to Redis.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
