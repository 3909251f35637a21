// Package worker archives execution reports from the execution topic into
// Postgres, off the engine's hot path.
package worker

import (
	"context"
	"encoding/json"

	"github.com/joripage/matching-engine/pkg/engine/model"
	"github.com/joripage/matching-engine/pkg/engine/store"
	"github.com/joripage/matching-engine/pkg/kafkautil"
)

type Worker struct {
	executions *store.ExecutionSQLStore
	consumer   *kafkautil.ConsumerGroup
}

func NewWorker(executions *store.ExecutionSQLStore, consumer *kafkautil.ConsumerGroup) *Worker {
	return &Worker{
		executions: executions,
		consumer:   consumer,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handleMessage)
}

func (w *Worker) handleMessage(ctx context.Context, _ []byte, value []byte) error {
	var report model.ExecutionReport
	if err := json.Unmarshal(value, &report); err != nil {
		// malformed payload, nothing to retry
		return nil
	}

	_, err := w.executions.Create(ctx, &report)
	return err
}
