//go:build integration

package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"factsync/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestRabbitMQ_Connection() {
	cfg := RabbitMQConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	sub, err := NewRabbitMQ(cfg, s.logger)
	s.NoError(err)
	s.NotNil(sub)
	s.Equal("rabbitmq", sub.Name())

	s.NoError(sub.Close())
}

func (s *RabbitMQIntegrationSuite) TestRabbitMQ_DeliversNewPostsBatch() {
	cfg := RabbitMQConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-posts",
		RoutingKey: "test-routing-key-posts",
		QueueName:  "test-queue-posts",
	}

	sub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer sub.Close()

	now := time.Now().Truncate(time.Millisecond).UTC()
	msg := PostsMessage{
		Action: ActionNewPosts,
		Posts: []domain.Post{
			{
				ExternalID:  123,
				Claim:       "video muestra papeletas marcadas",
				Status:      domain.StatusFalse,
				Platform:    domain.PlatformFacebook,
				MediaFormat: domain.FormatVideo,
				SubmittedAt: now,
				UpdatedAt:   now,
				Reactions:   42,
				Tags:        []string{"Elecciones"},
			},
			{
				ExternalID: 124,
				Claim:      "second case",
				Status:     domain.StatusVerified,
			},
		},
		Timestamp: now,
	}

	s.NoError(sub.NotifyNewPosts(s.ctx, msg))

	delivery := s.consumeMessage(cfg)
	s.Require().NotNil(delivery)
	s.Equal("application/json", delivery.ContentType)
	s.Equal(uint8(amqp.Persistent), delivery.DeliveryMode)

	var received PostsMessage
	s.NoError(json.Unmarshal(delivery.Body, &received))
	s.Equal(ActionNewPosts, received.Action)
	s.Require().Len(received.Posts, 2)
	s.Equal(int64(123), received.Posts[0].ExternalID)
	s.Equal(domain.StatusFalse, received.Posts[0].Status)
	s.Equal([]string{"Elecciones"}, received.Posts[0].Tags)
	s.Equal(int64(124), received.Posts[1].ExternalID)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg RabbitMQConfig) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
