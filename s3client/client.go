package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Kuljeet1998/healthcare-nlp/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

var (
	ErrNoSession      = errors.New("s3: no session available")
	ErrRefreshSession = errors.New("s3: failed to refresh session")
)

type Config struct {
	BucketName  string `envconfig:"FHIRQ_S3_BUCKET" required:"true"`
	Env         string `envconfig:"FHIRQ_ENV" default:"prod"`
	Region      string `envconfig:"FHIRQ_AWS_REGION" required:"true"`
	AwsEndpoint string `envconfig:"FHIRQ_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"FHIRQ_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"FHIRQ_AWS_ACCESS_KEY" default:""`
	MaxRetries  int    `envconfig:"FHIRQ_AWS_MAX_RETRIES" default:"4"`
}

// Client stores query files and analysis results in one bucket. The session
// is owned by a background goroutine which replaces it when a caller reports
// an error.
type Client struct {
	holder *sessionHolder
	config Config
}

type sessionHolder struct {
	curr      *session.Session
	requestCh <-chan *session.Session
	errorCh   chan<- error
	closeCh   chan<- struct{}
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		clientLogger.Err(err).Caller().Msg("Failed to get proper variables from environment")
		return nil, err
	}
	return NewWithConfig(config)
}

func NewWithConfig(config Config) (*Client, error) {
	client := Client{config: config}

	sessionCh := make(chan *session.Session)
	errorCh := make(chan error)
	closeCh := make(chan struct{}, 1)
	client.holder = &sessionHolder{
		requestCh: sessionCh,
		errorCh:   errorCh,
		closeCh:   closeCh,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	go keepSessionRefreshed(&client, sessionCh, errorCh, closeCh)
	return &client, nil
}

func (client *Client) Bucket() string {
	return client.config.BucketName
}

func (client *Client) Upload(ctx context.Context, data []byte, key string) (*s3manager.UploadOutput, error) {
	params := &s3manager.UploadInput{
		Bucket:      aws.String(client.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	output, err := client.upload(ctx, sess, params)
	if err == nil {
		return output, nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return nil, err
	}
	params.Body = bytes.NewReader(data)
	return client.upload(ctx, sess, params)
}

func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.config.BucketName),
		Key:    aws.String(key),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	res, err := client.download(ctx, sess, params)
	if err == nil {
		return res, nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return nil, err
	}
	return client.download(ctx, sess, params)
}

func (client *Client) Close() {
	client.holder.closeCh <- struct{}{}
}

func (client *Client) upload(
	ctx context.Context,
	sess *session.Session,
	params *s3manager.UploadInput,
) (*s3manager.UploadOutput, error) {
	log := clientLogger.With().Str("key", *params.Key).Str("bucket", *params.Bucket).Logger()
	sdkLog := sdkLogger.With().Str("key", *params.Key).Str("bucket", *params.Bucket).Logger()

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	log.Debug().Msg("Uploading the file")
	output, err := uploader.UploadWithContext(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload file")
		return nil, err
	}
	return output, nil
}

func (client *Client) download(ctx context.Context, sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	log := clientLogger.With().Str("key", *params.Key).Str("bucket", *params.Bucket).Logger()
	sdkLog := sdkLogger.With().Str("key", *params.Key).Str("bucket", *params.Bucket).Logger()

	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	log.Debug().Msg("Downloading file")
	size, err := downloader.DownloadWithContext(ctx, buf, params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	log.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

func keepSessionRefreshed(client *Client, sessionCh chan<- *session.Session, errorCh <-chan error, closeCh <-chan struct{}) {
	for {
		select {
		case sessionCh <- client.holder.curr:
			continue
		default:
		}
		select {
		case sessionCh <- client.holder.curr:
		case err := <-errorCh:
			clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
			if err = client.acquireNewSession(); err != nil {
				clientLogger.Error().Err(err).Msg("Caught error while refreshing S3 session")
				continue
			}
			clientLogger.Info().Msg("Successfully refreshed session")
		case <-closeCh:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (client *Client) tryRefreshingSession(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case client.holder.errorCh <- err:
		sess = <-client.holder.requestCh
	case sess = <-client.holder.requestCh:
	}
	if sess == nil {
		return nil, fmt.Errorf("%w after: %v", ErrRefreshSession, err)
	}
	return sess, nil
}

func (client *Client) session() (*session.Session, error) {
	sess := <-client.holder.requestCh
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (client *Client) instanceConfig() *aws.Config {
	cfg := aws.NewConfig().
		WithRegion(client.config.Region).
		WithMaxRetries(client.config.MaxRetries).
		WithLogLevel(aws.LogDebug)
	return client.withLocalEndpoint(cfg)
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.config.AccessKeyID, client.config.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := client.instanceConfig().WithCredentials(creds)
	return cfg, nil
}

// withLocalEndpoint points dev deployments at an S3-compatible endpoint such
// as localstack or minio.
func (client *Client) withLocalEndpoint(cfg *aws.Config) *aws.Config {
	if client.config.Env == "dev" && client.config.AwsEndpoint != "" {
		return cfg.WithEndpoint(client.config.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg
}

func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(client.instanceConfig())
	if err == nil {
		_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	}
	if err == nil {
		client.holder.curr = sess
		clientLogger.Info().Msg("S3 session successfully initialized using instance credentials")
		return nil
	}

	clientLogger.Info().Err(err).Msg("Could not initialize S3 session using instance credentials, trying env credentials")
	cfg, err := client.envConfig()
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	sess, err = session.NewSession(cfg)
	if err == nil {
		_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	}
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return fmt.Errorf("could not initialize S3 session: %w", err)
	}
	client.holder.curr = sess
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

type s3Logger struct {
	log zerolog.Logger
}

func getLogger(log zerolog.Logger) *s3Logger {
	return &s3Logger{log}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.log.Debug().Msg(fmt.Sprint(v...))
}
