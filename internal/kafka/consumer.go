package kafka

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when processing succeeded and the offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Backoff returns the wait before retry number attempt, counting from 1.
type Backoff func(attempt int) time.Duration

// ExpBackoff doubles from base up to limit.
func ExpBackoff(base, limit time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt && d < limit; i++ {
			d *= 2
		}
		if d > limit {
			d = limit
		}
		return d
	}
}

type Consumer struct {
	r       *kafka.Reader
	workers int
	backoff Backoff
	log     zerolog.Logger
}

func NewConsumer(brokers []string, group string, topics []string, workers int, log zerolog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, backoff: ExpBackoff(200*time.Millisecond, 30*time.Second), log: log}
}

// Start fetches until ctx is cancelled. Every partition is owned by one worker,
// which retries a failing message until it succeeds and only then commits it,
// so a commit never covers an unprocessed offset.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 256)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			log := c.log.With().Int("worker", id).Logger()
			for m := range jobs {
				if err := handleWithRetry(ctx, h, m, c.backoff, log); err != nil {
					return
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					log.Error().Err(err).Str("topic", m.Topic).Int64("offset", m.Offset).Msg("commit message")
				}
			}
		}(i, queues[i])
	}
	stop := func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		// a full queue blocks fetching, which is the backpressure for a stuck partition
		select {
		case queues[workerFor(m.Topic, m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handleWithRetry runs h until it succeeds. It returns ctx.Err() once ctx is
// done, leaving the message uncommitted for the next group member.
func handleWithRetry(ctx context.Context, h Handler, m kafka.Message, backoff Backoff, log zerolog.Logger) error {
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return nil
		}
		wait := backoff(attempt)
		log.Error().Err(err).Str("topic", m.Topic).Int("partition", m.Partition).Int64("offset", m.Offset).
			Int("attempt", attempt).Dur("retry_in", wait).Msg("handle message")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func workerFor(topic string, partition, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(topic))
	h.Write([]byte(strconv.Itoa(partition)))
	return int(h.Sum32() % uint32(workers))
}
