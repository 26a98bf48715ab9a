package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/rollup-backend/internal/platform/logger"
)

// EventRollupUpdated is published after a weekly rollup has been stored.
const EventRollupUpdated = "rollup.updated"

// RollupUpdated is the notification payload. It carries identity and headline numbers only;
// consumers read the full rollup from the API.
type RollupUpdated struct {
	Event          string    `json:"event"`
	RunID          string    `json:"runId"`
	Category       string    `json:"category"`
	PeriodStart    string    `json:"periodStart"`
	PeriodEnd      string    `json:"periodEnd"`
	Score          int       `json:"score"`
	CompletionRate int       `json:"completionRate"`
	Badges         []string  `json:"badges"`
	PublishedAt    time.Time `json:"publishedAt"`
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type RollupBus interface {
	Publish(ctx context.Context, msg RollupUpdated) error
	StartForwarder(ctx context.Context, onMsg func(m RollupUpdated)) error
	Close() error
}

type rollupBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRollupBus(log *logger.Logger, cfg Config) (RollupBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "rollups"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &rollupBus{
		log:     log.With("service", "RedisRollupBus", "channel", ch),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *rollupBus) Publish(ctx context.Context, msg RollupUpdated) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis rollup bus not initialized")
	}
	raw, err := EncodeRollupUpdated(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and calls onMsg for every decodable notification until ctx ends.
func (b *rollupBus) StartForwarder(ctx context.Context, onMsg func(m RollupUpdated)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis rollup bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				msg, err := DecodeRollupUpdated([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad rollup notification payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (b *rollupBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func EncodeRollupUpdated(msg RollupUpdated) ([]byte, error) {
	if msg.Event == "" {
		msg.Event = EventRollupUpdated
	}
	if msg.Badges == nil {
		msg.Badges = []string{}
	}
	return json.Marshal(msg)
}

func DecodeRollupUpdated(raw []byte) (RollupUpdated, error) {
	var msg RollupUpdated
	if err := json.Unmarshal(raw, &msg); err != nil {
		return RollupUpdated{}, err
	}
	if msg.Event != EventRollupUpdated {
		return RollupUpdated{}, fmt.Errorf("unexpected event %q", msg.Event)
	}
	return msg, nil
}
