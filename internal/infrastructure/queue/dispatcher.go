package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lumina-chat/lumina-api/internal/api/metrics"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher delivers OTP mail asynchronously through a fixed set of workers,
// sharded by recipient so per-recipient ordering holds. Registration never
// blocks on SMTP; delivery failures are logged and counted, not surfaced.
type Dispatcher struct {
	workers []chan ports.OTPMailInput
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.OTPMailInput, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.OTPMailInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient. It
// never blocks: when the shard's buffer is full (workers gone after shutdown,
// or SMTP stalled long enough to back up a shard) the message is dropped and
// counted, so callers keep their fire-and-forget contract.
func (d *Dispatcher) Enqueue(in ports.OTPMailInput) {
	idx := d.shardIndex(in.To)
	select {
	case d.workers[idx] <- in:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.MailDeliveriesTotal.WithLabelValues("dropped").Inc()
		d.log.Error().
			Str("to", in.To).
			Int("worker_id", idx).
			Msg("otp mail queue full, message dropped")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.OTPMailInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.mailer.SendOTP(ctx, in); err != nil {
				metrics.MailDeliveriesTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Str("to", in.To).
					Int("worker_id", id).
					Msg("otp mail delivery failed")
				continue
			}
			metrics.MailDeliveriesTotal.WithLabelValues("sent").Inc()
			d.log.Info().Str("to", in.To).Msg("otp mail sent")
		}
	}
}
