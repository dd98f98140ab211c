package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "CurveDash/internal/domain/repository"
	applogger "CurveDash/pkg/logger"
)

// RedisTickStream consumes live tick payloads from a Redis stream through a
// consumer group. Payloads are passed through verbatim; entries whose "data"
// field is missing are re-wrapped from the raw field map.
type RedisTickStream struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *applogger.Logger
}

// NewRedisTickStream creates a consumer-group tick stream.
func NewRedisTickStream(client *redis.Client, stream, group, consumer string, logger *applogger.Logger) domrepo.TickStream {
	return &RedisTickStream{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		logger:   logger,
	}
}

func (s *RedisTickStream) Consume(ctx context.Context) (<-chan []byte, <-chan error) {
	out := make(chan []byte, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		if err := s.ensureGroup(ctx); err != nil {
			errc <- err
			return
		}

		for {
			streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    s.group,
				Consumer: s.consumer,
				Streams:  []string{s.stream, ">"},
				Count:    32,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if err == redis.Nil {
					continue
				}
				s.logger.Warn("tick stream read failed", applogger.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			for _, str := range streams {
				for _, msg := range str.Messages {
					payload := extractPayload(msg.Values)
					select {
					case out <- payload:
					case <-ctx.Done():
						return
					}
					if err := s.client.XAck(ctx, s.stream, s.group, msg.ID).Err(); err != nil && ctx.Err() == nil {
						s.logger.Warn("tick ack failed",
							applogger.String("id", msg.ID), applogger.Error(err))
					}
				}
			}
		}
	}()

	return out, errc
}

func (s *RedisTickStream) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (s *RedisTickStream) Close() error {
	return nil
}

func extractPayload(values map[string]interface{}) []byte {
	if v, ok := values["data"]; ok {
		if str, ok := v.(string); ok {
			return []byte(str)
		}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return b
}
