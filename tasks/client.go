package tasks

import (
	"fmt"

	"github.com/Kuljeet1998/healthcare-nlp/redis"
)

type Client struct {
	Jobs    JobTasks
	Batches BatchTasks
}

// NewClient is a preferred way for working with task documents
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	batchesRedisClient, err := redis.NewClient(BatchesDB)
	if err != nil {
		_ = jobsRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Jobs:    JobTasks{client: jobsRedisClient},
		Batches: BatchTasks{client: batchesRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Batches.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
