package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"codeberg.org/algorave/apikit/internal/logger"
)

// receives consumer outcomes; satisfied by *metrics.Metrics
type Recorder interface {
	RecordQueueMessage(topic, outcome string)
}

type consumer struct {
	topic   string
	group   string
	handler Handler
}

// runs registered consumers in the background, each throttled to a fixed rate
type Runner struct {
	broker    Broker
	rate      rate.Limit
	recorder  Recorder
	consumers []consumer
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// creates a runner; perSecond caps messages handled per consumer
func NewRunner(broker Broker, perSecond float64, recorder Recorder) *Runner {
	return &Runner{
		broker:   broker,
		rate:     rate.Limit(perSecond),
		recorder: recorder,
	}
}

// adds a consumer; must be called before Start
func (r *Runner) Register(topic, group string, h Handler) {
	r.consumers = append(r.consumers, consumer{topic: topic, group: group, handler: h})
}

// begins consuming every registered topic
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	for _, c := range r.consumers {
		r.wg.Add(1)
		go r.run(ctx, c)
	}

	logger.Info("queue consumers started", "count", len(r.consumers), "rate", float64(r.rate))
}

// stops every consumer and waits for in-flight handlers
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}

	r.wg.Wait()
	logger.Info("queue consumers stopped")
}

func (r *Runner) run(ctx context.Context, c consumer) {
	defer r.wg.Done()

	limiter := rate.NewLimiter(r.rate, 1)

	h := func(ctx context.Context, msg Message) (err error) {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("consumer panicked: %v", rec)
			}
			r.record(c.topic, err)
		}()

		start := time.Now()
		err = c.handler(ctx, msg)

		logger.Debug("message handled",
			"topic", c.topic,
			"message_id", msg.ID,
			"attempt", msg.Attempt,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		return err
	}

	if err := r.broker.Subscribe(ctx, c.topic, c.group, h); err != nil {
		logger.ErrorErr(err, "consumer stopped", "topic", c.topic, "group", c.group)
	}
}

func (r *Runner) record(topic string, err error) {
	if r.recorder == nil {
		return
	}

	if err != nil {
		r.recorder.RecordQueueMessage(topic, "failed")
		return
	}

	r.recorder.RecordQueueMessage(topic, "consumed")
}

// wraps b so every successful publish is recorded
func Instrument(b Broker, recorder Recorder) Broker {
	return &instrumented{Broker: b, recorder: recorder}
}

type instrumented struct {
	Broker
	recorder Recorder
}

func (i *instrumented) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := i.Broker.Publish(ctx, topic, payload); err != nil {
		return err
	}

	i.recorder.RecordQueueMessage(topic, "published")
	return nil
}
