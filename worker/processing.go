package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/Kuljeet1998/healthcare-nlp/tasks"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

var ErrPipelineClosed = errors.New("pipeline channel was closed before returning anything")

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery   *amqp.Delivery
	batchTask  *tasks.BatchTask
	message    *Message
	redisKey   string
	queryCount int
	log        *zerolog.Logger
}

func (worker *Worker) processMessage(ctx context.Context, delivery *amqp.Delivery) {
	ctx, cancel := context.WithTimeout(ctx, worker.config.taskTimeout())
	defer cancel()

	rejectLogger := worker.log.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(ctx, delivery)
	if err != nil {
		worker.log.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.publishResult(task, *task.message); err != nil {
		task.log.Err(err).Msg("Got error while publishing to the results queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.log.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.log.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	batchTask, err := worker.redis.getBatchTask(ctx, message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch task for message: %w", err)
	}
	taskLogger := worker.log.With().
		Str("tid", message.RedisKey).
		Str("job_id", batchTask.JobID).
		Logger()
	return &Task{
		delivery:  delivery,
		batchTask: batchTask,
		redisKey:  message.RedisKey,
		message:   &message,
		log:       &taskLogger,
	}, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.log.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.log.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update batch task: %w", err)
	}
	if err = worker.runPipeline(ctx, task); err != nil {
		task.log.Err(err).Msg("Got error while running pipeline")
		return worker.redis.onTaskFailedWithError(ctx, task, err)
	}
	task.log.Info().Int("query_count", task.queryCount).Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(ctx, task); err != nil {
		task.log.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.log.Info().Msgf("Processing message from RMQ, attempt # %d", task.batchTask.TaskStatuses.Analyzer.Attempts+1)

	data, err := worker.s3.getQueries(ctx, task)
	if err != nil {
		task.log.Err(err).Caller().Msg("Could not fetch queries from s3")
		return fmt.Errorf("failed fetch queries from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:  task.redisKey,
		Text: string(data),
	}

	var result string
	select {
	case r, ok := <-worker.ppln(request):
		if !ok {
			task.log.Error().Msg("Pipeline channel was closed before returning anything")
			return ErrPipelineClosed
		}
		result = r
	case <-ctx.Done():
		return fmt.Errorf("waiting for pipeline: %w", ctx.Err())
	}

	var response pipeline.Response
	if err = json.Unmarshal([]byte(result), &response); err != nil {
		return fmt.Errorf("malformed pipeline response: %w", err)
	}
	task.queryCount = len(response.Results)

	task.log.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResults(ctx, task, result); err != nil {
		task.log.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	taskInfo := task.batchTask.TaskStatuses.Analyzer
	taskLogger := task.log

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done (might indicate an issue acking the message). Publishing result again.")
		return false, nil
	}
	job, err := worker.redis.getJobTask(ctx, task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for batch task")
		return false, err
	}
	if job.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task.")
		return false, worker.redis.onTaskCancelled(ctx, task)
	}
	if job.StopOnFailure {
		if batch, failedTask, failed := job.FailedTask(); failed {
			taskLogger.Info().
				Str("failed_batch", batch).
				Str("failed_task", failedTask).
				Msg("Job already has a failed batch and stops on failure, canceling task.")
			return false, worker.redis.onTaskCancelled(
				ctx,
				task,
				fmt.Sprintf(
					"Task was marked as %q because batch %q failed in %q and the job stops on failure.",
					tasks.TaskStatusCanceled,
					batch,
					failedTask,
				),
			)
		}
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Analyzer task has exceeded retries.")
		return false, worker.redis.onTaskExceededRetries(ctx, task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
