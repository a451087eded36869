package metrics

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/quickbites/orderflow/internal/aws"
)

// Checkout outcome metrics.
const (
	MetricCheckoutCompleted   = "CheckoutCompleted"
	MetricCheckoutOrderFailed = "CheckoutOrderFailed"
	MetricCheckoutItemsFailed = "CheckoutItemsFailed"
	MetricOrphanedOrder       = "OrphanedOrder"
)

// Publisher emits counter metrics. A nil Publisher is a no-op, so callers
// can skip metric wiring in tests and local runs.
type Publisher struct {
	cw        aws.CloudWatchAPI
	namespace string
}

// NewPublisher creates a Publisher for the given namespace.
func NewPublisher(cw aws.CloudWatchAPI, namespace string) *Publisher {
	return &Publisher{cw: cw, namespace: namespace}
}

// Count adds one to the named counter. Failures are the caller's to
// ignore; metrics never block business flow.
func (p *Publisher) Count(ctx context.Context, name string) error {
	if p == nil || p.cw == nil {
		return nil
	}
	_, err := p.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(p.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Value:      sdkaws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}
