package realtime

import (
	"context"
	"encoding/json"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/quickbites/orderflow/internal/aws"
)

const receiveBatchMax = 10

// Consumer long-polls the change-feed queue and pushes each decoded
// change through the bridge. Malformed messages are logged and deleted
// so they cannot poison the queue.
type Consumer struct {
	sqs         aws.SQSAPI
	queueURL    string
	waitSeconds int32
	bridge      *Bridge
	log         *zap.Logger
}

// NewConsumer creates a Consumer bound to a queue URL.
func NewConsumer(sqsClient aws.SQSAPI, queueURL string, waitSeconds int32, bridge *Bridge, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		sqs:         sqsClient,
		queueURL:    queueURL,
		waitSeconds: waitSeconds,
		bridge:      bridge,
		log:         log,
	}
}

// Run polls until ctx is cancelled. Receive errors are logged and
// retried after a short pause; the feed must outlive transient backend
// hiccups.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            sdkaws.String(c.queueURL),
			MaxNumberOfMessages: receiveBatchMax,
			WaitTimeSeconds:     c.waitSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("change feed receive failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, msg := range out.Messages {
			var ch Change
			if err := json.Unmarshal([]byte(sdkaws.ToString(msg.Body)), &ch); err != nil || ch.Table == "" {
				c.log.Warn("dropping malformed change message",
					zap.String("body", sdkaws.ToString(msg.Body)),
					zap.Error(err))
			} else {
				c.bridge.Dispatch(ch)
			}
			if _, err := c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      sdkaws.String(c.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				c.log.Warn("delete change message failed", zap.Error(err))
			}
		}
	}
}
