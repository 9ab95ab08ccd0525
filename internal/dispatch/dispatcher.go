// Package dispatch binds the three pipeline handlers to their queue
// subscriptions and supervises per-message error reporting without
// ever crashing the consumer loop.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/core"
	"github.com/taskbridge/taskbridge/internal/handlers"
	"github.com/taskbridge/taskbridge/internal/monitor"
)

// schedulerIDKey is the message metadata key carrying the submitting
// scheduler's identity on task-status and group-status topics.
const schedulerIDKey = "schedulerId"

// Hooks are test-only callbacks invoked after each message is fully
// processed, so a test harness can await asynchronous handling.
type Hooks struct {
	OnSuccess func(topic string)
	OnFailure func(topic string, err error)
}

// Dispatcher consumes the three subscriptions concurrently. Each
// message is handled in its own goroutine, so multiple messages for
// the same task group may be in flight at once; correctness rests on
// the record stores' invariants, not on ordering.
type Dispatcher struct {
	cfg        *config.Config
	subscriber message.Subscriber
	jobs       *handlers.JobHandler
	status     *handlers.StatusHandler
	groups     *handlers.GroupStatusHandler
	mon        monitor.Monitor
	logger     *slog.Logger
	hooks      Hooks
	wg         sync.WaitGroup
}

// New creates a Dispatcher.
func New(
	cfg *config.Config,
	subscriber message.Subscriber,
	jobs *handlers.JobHandler,
	status *handlers.StatusHandler,
	groups *handlers.GroupStatusHandler,
	mon monitor.Monitor,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		subscriber: subscriber,
		jobs:       jobs,
		status:     status,
		groups:     groups,
		mon:        mon,
		logger:     logger,
	}
}

// SetHooks installs the test-only processing hooks. Must be called
// before Run.
func (d *Dispatcher) SetHooks(h Hooks) {
	d.hooks = h
}

// Run binds the three subscriptions and blocks until ctx is cancelled
// and all in-flight handlers have settled.
func (d *Dispatcher) Run(ctx context.Context) error {
	bindings := []struct {
		topic    string
		filtered bool
		handle   func(context.Context, *message.Message) error
	}{
		{d.cfg.TopicJobs, false, d.handleJob},
		{d.cfg.TopicTaskStatus, true, d.handleStatus},
		{d.cfg.TopicGroupStatus, true, d.handleGroupStatus},
	}

	for _, b := range bindings {
		msgs, err := d.subscriber.Subscribe(ctx, b.topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
		}
		d.logger.Info("subscription bound", "topic", b.topic)

		d.wg.Add(1)
		go d.consume(ctx, b.topic, b.filtered, msgs, b.handle)
	}

	<-ctx.Done()
	d.wg.Wait()
	return nil
}

// consume launches one goroutine per message so a slow handler stalls
// only its own invocation, never the subscription.
func (d *Dispatcher) consume(ctx context.Context, topic string, filtered bool, msgs <-chan *message.Message, handle func(context.Context, *message.Message) error) {
	defer d.wg.Done()

	for msg := range msgs {
		if filtered && !d.ownMessage(msg) {
			msg.Ack()
			continue
		}
		d.wg.Add(1)
		go d.process(ctx, topic, msg, handle)
	}
	d.logger.Info("subscription closed", "topic", topic)
}

// process runs the handler and acknowledges the message after it
// settles, success or failure. Failures are reported to the monitor
// instead of nacking: redelivery storms on poisoned messages would
// otherwise starve the subscription.
func (d *Dispatcher) process(ctx context.Context, topic string, msg *message.Message, handle func(context.Context, *message.Message) error) {
	defer d.wg.Done()

	err := handle(ctx, msg)
	msg.Ack()

	if err != nil {
		d.mon.ReportError(ctx, err, "topic", topic, "message_uuid", msg.UUID)
		if d.hooks.OnFailure != nil {
			d.hooks.OnFailure(topic, err)
		}
		return
	}
	if d.hooks.OnSuccess != nil {
		d.hooks.OnSuccess(topic)
	}
}

// ownMessage checks the scheduler-identity filter on status topics.
// Messages from other schedulers sharing the exchange are not ours.
func (d *Dispatcher) ownMessage(msg *message.Message) bool {
	id := msg.Metadata.Get(schedulerIDKey)
	return id == "" || id == d.cfg.SchedulerID
}

func (d *Dispatcher) handleJob(ctx context.Context, msg *message.Message) error {
	var job core.JobMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return fmt.Errorf("malformed job message %s: %w", msg.UUID, err)
	}
	return d.jobs.Handle(ctx, &job)
}

func (d *Dispatcher) handleStatus(ctx context.Context, msg *message.Message) error {
	var envelope core.StatusEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		return fmt.Errorf("malformed status message %s: %w", msg.UUID, err)
	}
	return d.status.Handle(ctx, &envelope.Status)
}

func (d *Dispatcher) handleGroupStatus(ctx context.Context, msg *message.Message) error {
	var group core.GroupStatusMessage
	if err := json.Unmarshal(msg.Payload, &group); err != nil {
		return fmt.Errorf("malformed group status message %s: %w", msg.UUID, err)
	}
	return d.groups.Handle(ctx, &group)
}
