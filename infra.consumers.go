package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const popRetryDelay = 500 * time.Millisecond

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// replicaConsumer applies queued book changes to a replica storage.
type replicaConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	replica BookReplica
}

func NewReplicaConsumer(logger *zap.Logger, q Queuer, replica BookReplica) Consumer {
	return &replicaConsumer{logger: logger, queue: q, replica: replica}
}

// Consume pops books until the context is done. Failures are logged
// and skipped so that one bad entry does not stop the replication.
func (rc *replicaConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := rc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			rc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			rc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(popRetryDelay):
			}
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue:
			if err = rc.replica.Save(ctx, book); err != nil {
				rc.logger.Error("consumer: failed to save", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
			}
		case DeleteQueue:
			if err = rc.replica.Delete(ctx, book.ID); err != nil {
				rc.logger.Error("consumer: failed to delete", zap.String("book.id", book.ID), zap.Error(err))
			}
		default:
			rc.logger.Warn("consumer: received book on unknown queue id", zap.String("qid", qid), zap.String("book.id", book.ID))
		}
	}
}
