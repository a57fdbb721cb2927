package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/repairshop/workshop/internal/api/metrics"
	"github.com/repairshop/workshop/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
)

// SentMarker records that a client's credentials were delivered.
type SentMarker interface {
	MarkCredentialsSent(ctx context.Context, id int64) error
}

// Dispatcher delivers credential notices on a fixed set of workers. Notices
// for the same client always land on the same worker, so a resend queued
// after a create is delivered after it.
type Dispatcher struct {
	workers []chan ports.CredentialNotice
	mailer  ports.Mailer
	marker  SentMarker
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, marker SentMarker, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.CredentialNotice, numWorkers),
		mailer:  mailer,
		marker:  marker,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CredentialNotice, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a notice to the worker responsible for its client. It never
// blocks: when that worker's buffer is full the notice is dropped and
// counted as failed, leaving credentials_sent false so staff can resend.
func (d *Dispatcher) Enqueue(n ports.CredentialNotice) {
	idx := d.shardIndex(n.ClientID)
	select {
	case d.workers[idx] <- n:
		metrics.NotifyQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error().
			Int64("client_id", n.ClientID).
			Int("worker_id", idx).
			Msg("notice queue full, credentials not sent")
	}
}

// shardIndex maps a client id deterministically to a worker index.
func (d *Dispatcher) shardIndex(clientID int64) int {
	if clientID < 0 {
		clientID = -clientID
	}
	return int(clientID % int64(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CredentialNotice) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotifyQueueDepth.WithLabelValues(label).Dec()
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, n ports.CredentialNotice) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.mailer.SendClientCredentials(ctx, n)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Int64("client_id", n.ClientID).
			Int("worker_id", workerID).
			Msg("credential notice failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()

	if d.marker == nil {
		return
	}
	if err := d.marker.MarkCredentialsSent(ctx, n.ClientID); err != nil {
		d.log.Error().Err(err).
			Int64("client_id", n.ClientID).
			Msg("mark credentials sent failed")
	}
}
