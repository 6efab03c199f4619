package tasks

import (
	"context"

	"github.com/Kuljeet1998/healthcare-nlp/redis"
)

const BatchesDB redis.DB = 2

// AnalyzerTaskName is the key of this service under task_statuses and in a
// job's failed batch lists.
const AnalyzerTaskName = "analyzer"

// BatchTask is a group of queries submitted together. Only the fields read or
// written here are declared; the rest of the stored document is preserved.
type BatchTask struct {
	JobID          string            `json:"job_id"`
	QueriesFileKey string            `json:"queries_file_key"`
	TaskStatuses   BatchTaskStatuses `json:"task_statuses"`
}

type BatchTaskStatuses struct {
	Analyzer BatchTaskInfo `json:"analyzer"`
}

type BatchTaskInfo struct {
	Status         TaskStatus `json:"status"`
	Attempts       int        `json:"attempts"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	ResultsFileKey string     `json:"results_file_key"`
	QueryCount     int        `json:"query_count"`
	ErrorMessages  []string   `json:"error_messages"`
}

type BatchTasks struct {
	client redis.Client
}

func (tasks BatchTasks) Get(ctx context.Context, redisKey string) (*BatchTask, error) {
	var task BatchTask
	if err := tasks.client.GetDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks BatchTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *BatchTask)) error {
	var task BatchTask
	return tasks.client.UpdateDocument(ctx, redisKey, &task, func() error {
		updateFunc(&task)
		return nil
	})
}
