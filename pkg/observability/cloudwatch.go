package observability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchClient is the subset of the CloudWatch API the reporter uses
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// PutMetricData accepts at most 1000 datums per call
const maxDatums = 1000

// Reporter accumulates pipeline counters in memory and sends them to
// CloudWatch on Flush. It implements ports.Metrics; in Lambda it is
// flushed after every invocation.
type Reporter struct {
	namespace string
	client    CloudWatchClient
	logger    *zap.Logger

	mu        sync.Mutex
	counts    map[counterKey]float64
	latencies []latency
}

type counterKey struct {
	metric    string
	dimension string
	value     string
}

type latency struct {
	domain  string
	elapsed time.Duration
}

// NewReporter creates a new CloudWatch reporter
func NewReporter(namespace string, client CloudWatchClient, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		namespace: namespace,
		client:    client,
		logger:    logger,
		counts:    make(map[counterKey]float64),
	}
}

func (r *Reporter) add(metric, dimension, value string, n float64) {
	r.mu.Lock()
	r.counts[counterKey{metric, dimension, value}] += n
	r.mu.Unlock()
}

// MapBuilt implements ports.Metrics
func (r *Reporter) MapBuilt(domain string, llmUsed bool, elapsed time.Duration) {
	r.add("MapsBuilt", "Domain", domain, 1)
	if !llmUsed {
		r.add("RuleOnlyMaps", "Domain", domain, 1)
	}
	r.mu.Lock()
	r.latencies = append(r.latencies, latency{domain, elapsed})
	r.mu.Unlock()
}

// LLMCall implements ports.Metrics
func (r *Reporter) LLMCall(stage, outcome string) {
	r.add("LLMCalls", "Outcome", stage+":"+outcome, 1)
}

// Fallback implements ports.Metrics
func (r *Reporter) Fallback(stage string) {
	r.add("Fallbacks", "Stage", stage, 1)
}

// RewriteCache implements ports.Metrics
func (r *Reporter) RewriteCache(bool) {}

// NodesRewritten implements ports.Metrics
func (r *Reporter) NodesRewritten(source string, n int) {
	if n > 0 {
		r.add("NodesRewritten", "Source", source, float64(n))
	}
}

// Query implements ports.Metrics
func (r *Reporter) Query(string, string, time.Duration) {}

// Flush sends and resets the accumulated counters. Failures are logged;
// the counters are dropped either way.
func (r *Reporter) Flush(ctx context.Context) {
	r.mu.Lock()
	counts := r.counts
	latencies := r.latencies
	r.counts = make(map[counterKey]float64)
	r.latencies = nil
	r.mu.Unlock()

	if r.client == nil || (len(counts) == 0 && len(latencies) == 0) {
		return
	}

	now := time.Now()
	keys := make([]counterKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].metric != keys[j].metric {
			return keys[i].metric < keys[j].metric
		}
		return keys[i].value < keys[j].value
	})

	data := make([]types.MetricDatum, 0, len(keys)+len(latencies))
	for _, k := range keys {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(k.metric),
			Dimensions: []types.Dimension{{Name: aws.String(k.dimension), Value: aws.String(k.value)}},
			Value:      aws.Float64(counts[k]),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		})
	}
	for _, l := range latencies {
		data = append(data, types.MetricDatum{
			MetricName: aws.String("BuildLatency"),
			Dimensions: []types.Dimension{{Name: aws.String("Domain"), Value: aws.String(l.domain)}},
			Value:      aws.Float64(float64(l.elapsed.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		})
	}

	for i := 0; i < len(data); i += maxDatums {
		end := i + maxDatums
		if end > len(data) {
			end = len(data)
		}
		_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(r.namespace),
			MetricData: data[i:end],
		})
		if err != nil {
			r.logger.Warn("Failed to send metrics", zap.String("namespace", r.namespace), zap.Error(err))
			return
		}
	}
}
