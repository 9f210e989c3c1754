// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler processes a single job. A returned error causes the job to be
// retried (if attempts remain) or abandoned to the dead-letter state.
type Handler func(ctx context.Context, job *Job) error

// Metrics is the queue-depth gauge a Pool's sweeper updates on every sweep.
// Satisfied by *metrics.RelayMetrics; nil disables the observation.
type Metrics interface {
	SetQueueDepth(topic string, depth float64)
}

// Pool runs a bounded number of goroutines pulling jobs off a single topic
// and dispatching them to a Handler, retrying failures with backoff and
// promoting/reaping the topic's delayed and in-flight sets in the
// background.
type Pool struct {
	queue       *Queue
	topic       Topic
	concurrency int
	handler     Handler
	metrics     Metrics
	logger      logrus.FieldLogger

	sweepInterval time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool builds a worker pool over topic. concurrency must be >= 1. metrics
// may be nil, in which case queue-depth observation is skipped.
func NewPool(queue *Queue, topic Topic, concurrency int, handler Handler, metrics Metrics, logger logrus.FieldLogger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:         queue,
		topic:         topic,
		concurrency:   concurrency,
		handler:       handler,
		metrics:       metrics,
		logger:        logger.WithField("topic", string(topic)),
		sweepInterval: 5 * time.Second,
	}
}

// Start launches the worker goroutines and the background sweeper. It
// returns immediately; call Stop to shut the pool down.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}

	p.wg.Add(1)
	go p.runSweeper(ctx)
}

// Stop signals every worker and the sweeper to exit and blocks until they
// have.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.logger.WithField("worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.topic, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("failed to dequeue job")
			continue
		}
		if job == nil {
			continue
		}

		// A job already claimed off the queue runs to completion even if
		// the pool is asked to stop while it's in flight: ctx.Done() only
		// stops the worker from picking up further work, it must not abort
		// an attempt that's already underway.
		p.process(context.WithoutCancel(ctx), job, log)
	}
}

func (p *Pool) process(ctx context.Context, job *Job, log logrus.FieldLogger) {
	attemptLog := log.WithFields(logrus.Fields{
		"event_id": job.EventID,
		"attempt":  job.Attempt,
	})

	err := p.handler(ctx, job)
	if err == nil {
		if ackErr := p.queue.Ack(ctx, p.topic, job); ackErr != nil {
			attemptLog.WithError(ackErr).Error("failed to ack job")
		}
		return
	}

	attemptLog.WithError(err).Warn("job attempt failed")

	if ackErr := p.queue.Ack(ctx, p.topic, job); ackErr != nil {
		attemptLog.WithError(ackErr).Error("failed to ack failed job before retry")
	}

	if job.Attempt >= job.MaxAttempts {
		attemptLog.Warn("job exhausted retries; abandoning to dead letter")
		return
	}

	if retryErr := p.queue.EnqueueRetry(ctx, job); retryErr != nil {
		attemptLog.WithError(retryErr).Error("failed to schedule retry")
	}
}

func (p *Pool) runSweeper(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if promoted, err := p.queue.PromoteDue(ctx, p.topic); err != nil {
				p.logger.WithError(err).Error("failed to promote delayed jobs")
			} else if promoted > 0 {
				p.logger.WithField("count", promoted).Debug("promoted delayed jobs")
			}

			if reaped, err := p.queue.ReapStalled(ctx, p.topic); err != nil {
				p.logger.WithError(err).Error("failed to reap stalled jobs")
			} else if reaped > 0 {
				p.logger.WithField("count", reaped).Warn("reaped stalled jobs")
			}

			if p.metrics != nil {
				if depth, err := p.queue.Depth(ctx, p.topic); err != nil {
					p.logger.WithError(err).Error("failed to measure queue depth")
				} else {
					p.metrics.SetQueueDepth(string(p.topic), float64(depth))
				}
			}
		}
	}
}
