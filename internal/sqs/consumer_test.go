package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789/test-queue"

// mockSQSConsumerClient is a mock implementation of the SQS client for consumer testing.
type mockSQSConsumerClient struct {
	receiveMessageFunc func(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	deleteMessageFunc  func(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func (m *mockSQSConsumerClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if m.receiveMessageFunc != nil {
		return m.receiveMessageFunc(ctx, params, optFns...)
	}
	return &sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil
}

func (m *mockSQSConsumerClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	if m.deleteMessageFunc != nil {
		return m.deleteMessageFunc(ctx, params, optFns...)
	}
	return &sqs.DeleteMessageOutput{}, nil
}

func TestConsumer_processMessage(t *testing.T) {
	t.Run("decodes and hands over the message", func(t *testing.T) {
		// given
		var handled CatalogMessage
		consumer := NewConsumer(&mockSQSConsumerClient{}, testQueueURL, func(_ context.Context, msg CatalogMessage) error {
			handled = msg
			return nil
		})
		message := types.Message{
			Body:          aws.String(`{"action":"updated","message":"edit","product_count":2,"revision":"r2","committed_at":"2026-01-02T03:04:05Z"}`),
			ReceiptHandle: aws.String("test-receipt-handle"),
		}

		// when
		err := consumer.processMessage(context.Background(), message)

		// then
		require.NoError(t, err)
		assert.Equal(t, ActionUpdated, handled.Action)
		assert.Equal(t, 2, handled.ProductCount)
		assert.Equal(t, "r2", handled.Revision)
	})

	t.Run("default handler logs", func(t *testing.T) {
		// given
		consumer := NewConsumer(&mockSQSConsumerClient{}, testQueueURL, nil)
		message := types.Message{Body: aws.String(`{"action":"updated"}`)}

		// when
		err := consumer.processMessage(context.Background(), message)

		// then
		require.NoError(t, err)
	})

	t.Run("nil message body", func(t *testing.T) {
		// given
		consumer := NewConsumer(&mockSQSConsumerClient{}, testQueueURL, nil)

		// when
		err := consumer.processMessage(context.Background(), types.Message{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "message body is nil")
	})

	t.Run("invalid JSON message body", func(t *testing.T) {
		// given
		consumer := NewConsumer(&mockSQSConsumerClient{}, testQueueURL, nil)
		message := types.Message{Body: aws.String(`{"invalid json`)}

		// when
		err := consumer.processMessage(context.Background(), message)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal message")
	})

	t.Run("handler error", func(t *testing.T) {
		// given
		consumer := NewConsumer(&mockSQSConsumerClient{}, testQueueURL, func(context.Context, CatalogMessage) error {
			return errors.New("boom")
		})
		message := types.Message{Body: aws.String(`{"action":"updated"}`)}

		// when
		err := consumer.processMessage(context.Background(), message)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to handle message")
	})
}

func TestConsumer_receiveMessages(t *testing.T) {
	t.Run("deletes processed messages", func(t *testing.T) {
		// given
		var deleted []string
		mockClient := &mockSQSConsumerClient{
			receiveMessageFunc: func(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
				assert.Equal(t, testQueueURL, *params.QueueUrl)
				assert.Equal(t, int32(10), params.MaxNumberOfMessages)
				assert.Equal(t, int32(20), params.WaitTimeSeconds)
				return &sqs.ReceiveMessageOutput{
					Messages: []types.Message{
						{Body: aws.String(`{"action":"updated"}`), ReceiptHandle: aws.String("ok")},
						{Body: aws.String(`{"invalid json`), ReceiptHandle: aws.String("bad")},
					},
				}, nil
			},
			deleteMessageFunc: func(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
				deleted = append(deleted, *params.ReceiptHandle)
				return &sqs.DeleteMessageOutput{}, nil
			},
		}
		consumer := NewConsumer(mockClient, testQueueURL, nil)

		// when
		err := consumer.receiveMessages(context.Background())

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"ok"}, deleted)
	})

	t.Run("handles receive message error", func(t *testing.T) {
		// given
		mockClient := &mockSQSConsumerClient{
			receiveMessageFunc: func(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
				return nil, errors.New("failed to receive")
			},
		}
		consumer := NewConsumer(mockClient, testQueueURL, nil)

		// when
		err := consumer.receiveMessages(context.Background())

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to receive messages")
	})

	t.Run("delete failure does not stop the batch", func(t *testing.T) {
		// given
		calls := 0
		mockClient := &mockSQSConsumerClient{
			receiveMessageFunc: func(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
				return &sqs.ReceiveMessageOutput{
					Messages: []types.Message{
						{Body: aws.String(`{"action":"updated"}`), ReceiptHandle: aws.String("a")},
						{Body: aws.String(`{"action":"updated"}`), ReceiptHandle: aws.String("b")},
					},
				}, nil
			},
			deleteMessageFunc: func(_ context.Context, _ *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
				calls++
				return nil, errors.New("failed to delete")
			},
		}
		consumer := NewConsumer(mockClient, testQueueURL, nil)

		// when
		err := consumer.receiveMessages(context.Background())

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestConsumer_Start_StopsOnCancel(t *testing.T) {
	// given
	ctx, cancel := context.WithCancel(context.Background())
	mockClient := &mockSQSConsumerClient{
		receiveMessageFunc: func(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
			cancel()
			return &sqs.ReceiveMessageOutput{}, nil
		},
	}
	consumer := NewConsumer(mockClient, testQueueURL, nil)

	// when
	err := consumer.Start(ctx)

	// then
	assert.ErrorIs(t, err, context.Canceled)
}
