package worker

import (
	"path"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/tasks"
)

func getResultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"jobs",
		task.batchTask.JobID,
		"batches",
		task.redisKey,
		task.redisKey+".analysis.json",
	)
}

var now = time.Now

func getFormattedNow() *string {
	return tasks.Timestamp(now())
}
