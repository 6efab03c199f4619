package rmq

import (
	"fmt"
	"net/url"

	"github.com/Kuljeet1998/healthcare-nlp/logger"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host                    string `envconfig:"FHIRQ_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"FHIRQ_RMQ_PORT" default:"5672"`
	Username                string `envconfig:"FHIRQ_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"FHIRQ_RMQ_PASSWORD" required:"true"`
	VHost                   string `envconfig:"FHIRQ_RMQ_VHOST" default:""`
	Exchange                string `envconfig:"FHIRQ_RMQ_EXCHANGE" default:"fhirq-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"FHIRQ_RMQ_MAX_PARALLEL_REQUESTS" default:"5"`
	AnalysisQueue           string `envconfig:"FHIRQ_RMQ_ANALYSIS_QUEUE" default:"fhirq-analysis"`
	ResultsQueue            string `envconfig:"FHIRQ_RMQ_RESULTS_QUEUE" default:"fhirq-results"`
}

// Client consumes analysis requests on one connection and publishes
// completion messages on another, so a blocked publisher does not stall
// consumption.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	log            zerolog.Logger
}

func NewClient() (*Client, error) {
	log := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	amqpURL := URL(config)
	respConn, respChannel, err := setup(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(amqpURL)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	closeAll := func() {
		_ = reqConn.Close()
		_ = respConn.Close()
	}

	for _, queue := range []string{config.AnalysisQueue, config.ResultsQueue} {
		if err := declare(reqChannel, config.Exchange, queue); err != nil {
			closeAll()
			return nil, err
		}
	}
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("qos: %w", err)
	}

	deliveries, err := reqChannel.Consume(
		config.AnalysisQueue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}

	log.Info().
		Str("analysis_queue", config.AnalysisQueue).
		Str("results_queue", config.ResultsQueue).
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming analysis requests")

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChannel.NotifyClose(make(chan *amqp.Error, 1)),
		RespChanErrors: respChannel.NotifyClose(make(chan *amqp.Error, 1)),
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		log:            log,
	}, nil
}

func declare(ch *amqp.Channel, exchange string, queue string) error {
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	if exchange == "" {
		return nil
	}
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
	}
	return nil
}

func (c *Client) PublishResult(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.ResultsQueue,
		false, // mandatory
		false, // immediate
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

// URL builds the broker address; credentials are escaped.
func URL(config Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   fmt.Sprintf("%s:%s", config.Host, config.Port),
		Path:   "/" + config.VHost,
	}
	return u.String()
}

func setup(amqpURL string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
