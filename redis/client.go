package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/utils"
	"github.com/bsm/redislock"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

var ErrNotFound = errors.New("redis: document not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
	lockRetries    int
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"FHIRQ_REDIS_LOCK_EXPIRATION" default:"3"`
	LockRetries             int     `envconfig:"FHIRQ_REDIS_LOCK_RETRIES" default:"20"`
	Host                    string  `envconfig:"FHIRQ_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"FHIRQ_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"FHIRQ_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"FHIRQ_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"FHIRQ_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"FHIRQ_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"FHIRQ_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"FHIRQ_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return Client{}, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateFailoverClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
		lockRetries:    cfg.LockRetries,
	}, nil
}

func CreateFailoverClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

func (client *Client) getRaw(ctx context.Context, redisKey string) ([]byte, error) {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redisKey)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", redisKey, err)
	}
	return b, nil
}

// GetDocument decodes the JSON stored under redisKey into doc. Fields doc does
// not declare are ignored.
func (client *Client) GetDocument(ctx context.Context, redisKey string, doc interface{}) error {
	raw, err := client.getRaw(ctx, redisKey)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return fmt.Errorf("decode %s: %w", redisKey, err)
	}
	return nil
}

// UpdateDocument locks redisKey, decodes it into doc, runs update and stores
// the changes as a JSON merge patch over the stored document, so fields
// written by other services survive.
func (client *Client) UpdateDocument(
	ctx context.Context,
	redisKey string,
	doc interface{},
	update func() error,
) (err error) {
	releaseLock, err := client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	raw, err := client.getRaw(ctx, redisKey)
	if err != nil {
		return err
	}
	merged, err := MergeUpdate(raw, doc, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", redisKey, err)
	}
	return client.SaveRaw(ctx, redisKey, merged)
}

// MergeUpdate applies update to doc (decoded from raw) and merges the
// resulting changes back into raw.
func MergeUpdate(raw []byte, doc interface{}, update func() error) (merged []byte, err error) {
	if err = json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	before, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err = applyUpdate(update); err != nil {
		return nil, err
	}
	after, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.MergePatch(raw, patch)
}

func applyUpdate(update func() error) (err error) {
	defer utils.RecoverWithError(&err)
	return update()
}

func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	locker := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), client.lockRetries)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := locker.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", lockKey, err)
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) SaveDocument(ctx context.Context, redisKey string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.SaveRaw(ctx, redisKey, b)
}

func (client *Client) SaveRaw(ctx context.Context, redisKey string, b []byte) error {
	if err := client.client.Set(ctx, redisKey, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", redisKey, err)
	}
	return nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
