package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dgallion1/themeindex/internal/catalog"
)

const (
	keyRecent = "themeindex:search:recent"
	keyCounts = "themeindex:search:counts"

	fieldTotal      = "total"
	fieldZero       = "zero_results"
	fieldLangPrefix = "lang:"

	dialTimeout = 3 * time.Second
	pingTimeout = 2 * time.Second
)

// NewClient connects to Redis at url and verifies the connection.
func NewClient(ctx context.Context, url string, log *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid url: %w", err)
	}
	opts.DialTimeout = dialTimeout

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	log.Info("redis connected", "addr", opts.Addr)
	return client, nil
}

// Redis is a Recorder shared across server instances.
type Redis struct {
	client redis.UniversalClient
	keep   int
}

func NewRedis(client redis.UniversalClient, keep int) *Redis {
	if keep <= 0 {
		keep = DefaultRecent
	}
	return &Redis{client: client, keep: keep}
}

func (r *Redis) Record(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode search event: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, keyRecent, raw)
		p.LTrim(ctx, keyRecent, 0, int64(r.keep-1))
		p.HIncrBy(ctx, keyCounts, fieldTotal, 1)
		p.HIncrBy(ctx, keyCounts, fieldLangPrefix+string(ev.Language), 1)
		if ev.Results == 0 {
			p.HIncrBy(ctx, keyCounts, fieldZero, 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record search event: %w", err)
	}
	return nil
}

func (r *Redis) Summary(ctx context.Context, recent int) (Summary, error) {
	counts, err := r.client.HGetAll(ctx, keyCounts).Result()
	if err != nil {
		return Summary{}, fmt.Errorf("read search counts: %w", err)
	}
	out := parseCounts(counts)
	out.Recent = []Event{}
	if recent <= 0 {
		return out, nil
	}

	raw, err := r.client.LRange(ctx, keyRecent, 0, int64(recent-1)).Result()
	if err != nil {
		return Summary{}, fmt.Errorf("read recent searches: %w", err)
	}
	out.Recent = decodeEvents(raw)
	return out, nil
}

func parseCounts(counts map[string]string) Summary {
	out := Summary{ByLanguage: make(map[catalog.Lang]int64)}
	for field, v := range counts {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == fieldTotal:
			out.Total = n
		case field == fieldZero:
			out.ZeroResults = n
		case strings.HasPrefix(field, fieldLangPrefix):
			out.ByLanguage[catalog.Lang(strings.TrimPrefix(field, fieldLangPrefix))] = n
		}
	}
	return out
}

// decodeEvents skips entries that fail to decode.
func decodeEvents(raw []string) []Event {
	out := make([]Event, 0, len(raw))
	for _, s := range raw {
		var ev Event
		if json.Unmarshal([]byte(s), &ev) == nil {
			out = append(out, ev)
		}
	}
	return out
}
