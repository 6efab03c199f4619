package worker

import (
	"context"
	"fmt"

	"github.com/Kuljeet1998/healthcare-nlp/tasks"
)

type redisTransactions interface {
	getBatchTask(ctx context.Context, redisKey string) (*tasks.BatchTask, error)
	getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Batches.Update(ctx, task.redisKey, func(batchTask *tasks.BatchTask) {
		info := &batchTask.TaskStatuses.Analyzer
		info.Status = tasks.TaskStatusStarted
		info.Attempts++
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Batches.Update(ctx, task.redisKey, func(batchTask *tasks.BatchTask) {
		info := &batchTask.TaskStatuses.Analyzer
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts++
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Jobs.RecordFailure(ctx, task.batchTask.JobID, task.redisKey, tasks.AnalyzerTaskName)
	if err != nil {
		return err
	}
	return wrapper.tasksClient.Batches.Update(ctx, task.redisKey, func(batchTask *tasks.BatchTask) {
		info := &batchTask.TaskStatuses.Analyzer
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts++
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d)", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.tasksClient.Batches.Update(ctx, task.redisKey, func(batchTask *tasks.BatchTask) {
		info := &batchTask.TaskStatuses.Analyzer
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Batches.Update(ctx, task.redisKey, func(batchTask *tasks.BatchTask) {
		info := &batchTask.TaskStatuses.Analyzer
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
		info.QueryCount = task.queryCount
	})
}

func (wrapper *redisClientWrapper) getBatchTask(ctx context.Context, redisKey string) (*tasks.BatchTask, error) {
	return wrapper.tasksClient.Batches.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(ctx, task.batchTask.JobID)
}
