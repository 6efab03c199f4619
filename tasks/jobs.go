package tasks

import (
	"context"

	"github.com/Kuljeet1998/healthcare-nlp/redis"
)

const JobsDB redis.DB = 1

// JobTask holds the job properties workers poll. They live under the job's
// cached properties key.
type JobTask struct {
	UserCanceled  bool                `json:"user_canceled"`
	StopOnFailure bool                `json:"stop_on_failure"`
	FailedBatches map[string][]string `json:"failed_batches"`
}

// FailedTask returns the first task recorded as failed for any batch of the
// job.
func (job JobTask) FailedTask() (batch string, task string, ok bool) {
	for key, failed := range job.FailedBatches {
		if len(failed) > 0 && (!ok || key < batch) {
			batch, task, ok = key, failed[0], true
		}
	}
	return
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(ctx context.Context, jobID string) (*JobTask, error) {
	var task JobTask
	if err := tasks.client.GetDocument(ctx, cachedPropertiesKey(jobID), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// RecordFailure appends taskName to the failed list of batchKey.
func (tasks JobTasks) RecordFailure(ctx context.Context, jobID string, batchKey string, taskName string) error {
	var task JobTask
	return tasks.client.UpdateDocument(ctx, cachedPropertiesKey(jobID), &task, func() error {
		if task.FailedBatches == nil {
			task.FailedBatches = make(map[string][]string)
		}
		task.FailedBatches[batchKey] = append(task.FailedBatches[batchKey], taskName)
		return nil
	})
}
