package worker

import (
	"context"

	"github.com/Kuljeet1998/healthcare-nlp/s3client"
)

type s3Transactions interface {
	saveResults(ctx context.Context, task *Task, result string) error
	getQueries(ctx context.Context, task *Task) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveResults(ctx context.Context, task *Task, result string) error {
	_, err := wrapper.s3Client.Upload(ctx, []byte(result), getResultsFileKey(task))
	return err
}

func (wrapper *s3ClientWrapper) getQueries(ctx context.Context, task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(ctx, task.batchTask.QueriesFileKey)
}
