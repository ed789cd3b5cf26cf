package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSQSClient is a mock implementation of the SQS client for testing.
type mockSQSClient struct {
	sendMessageFunc func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

func (m *mockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, params, optFns...)
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublisher_PublishCatalogMessage(t *testing.T) {
	t.Run("successful message publish", func(t *testing.T) {
		// given
		queueURL := "https://sqs.us-east-1.amazonaws.com/123456789/test-queue"
		ctx := context.Background()
		committedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		var sent CatalogMessage
		mockClient := &mockSQSClient{
			sendMessageFunc: func(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
				assert.Equal(t, queueURL, *params.QueueUrl)
				require.NotNil(t, params.MessageBody)
				require.NoError(t, json.Unmarshal([]byte(*params.MessageBody), &sent))
				assert.Equal(t, ActionUpdated, *params.MessageAttributes["action"].StringValue)
				return &sqs.SendMessageOutput{
					MessageId: aws.String("test-message-id"),
				}, nil
			},
		}

		publisher := NewPublisher(mockClient, queueURL)

		msg := CatalogMessage{
			Action:       ActionUpdated,
			Message:      "Update products via web UI",
			ProductCount: 3,
			Revision:     "abc123",
			CommittedAt:  committedAt,
		}

		// when
		err := publisher.PublishCatalogMessage(ctx, msg)

		// then
		require.NoError(t, err)
		assert.Equal(t, msg, sent)
	})

	t.Run("error sending message", func(t *testing.T) {
		// given
		queueURL := "https://sqs.us-east-1.amazonaws.com/123456789/test-queue"
		ctx := context.Background()

		expectedErr := errors.New("failed to send message")
		mockClient := &mockSQSClient{
			sendMessageFunc: func(_ context.Context, _ *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
				return nil, expectedErr
			},
		}

		publisher := NewPublisher(mockClient, queueURL)

		// when
		err := publisher.PublishCatalogMessage(ctx, CatalogMessage{Action: ActionUpdated})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestNewPublisher(t *testing.T) {
	// given
	mockClient := &mockSQSClient{}
	queueURL := "https://sqs.us-east-1.amazonaws.com/123456789/test-queue"

	// when
	publisher := NewPublisher(mockClient, queueURL)

	// then
	require.NotNil(t, publisher)
	assert.Equal(t, queueURL, publisher.queueURL)
}
