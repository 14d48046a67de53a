package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/blackcoderx/apman/pkg/transport"
)

// LoadParams configures a load test of one operation.
type LoadParams struct {
	Duration          time.Duration `json:"duration"`
	RequestsPerSecond int           `json:"requests_per_second"`
	ConcurrentUsers   int           `json:"concurrent_users"`
	// RampUp spreads worker start times evenly over this window.
	RampUp time.Duration `json:"ramp_up"`
}

// LoadResult holds the results of a load test
type LoadResult struct {
	Operation        string        `json:"operation"`
	TotalRequests    int64         `json:"total_requests"`
	SuccessfulReqs   int64         `json:"successful_requests"`
	FailedReqs       int64         `json:"failed_requests"`
	Duration         time.Duration `json:"duration"`
	Throughput       float64       `json:"throughput_rps"`
	LatencyP50       time.Duration `json:"latency_p50"`
	LatencyP95       time.Duration `json:"latency_p95"`
	LatencyP99       time.Duration `json:"latency_p99"`
	MinLatency       time.Duration `json:"min_latency"`
	MaxLatency       time.Duration `json:"max_latency"`
	AvgLatency       time.Duration `json:"avg_latency"`
	ErrorRate        float64       `json:"error_rate_percent"`
	StatusCodeCounts map[int]int64 `json:"status_codes"`
}

func (p LoadParams) validate() error {
	if p.Duration <= 0 {
		return fmt.Errorf("duration must be greater than 0")
	}
	if p.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be greater than 0")
	}
	if p.ConcurrentUsers <= 0 {
		return fmt.Errorf("concurrent users must be greater than 0")
	}
	if p.RampUp < 0 {
		return fmt.Errorf("ramp-up cannot be negative")
	}
	return nil
}

// RunLoad calls the named operation repeatedly with the same data.
func (c *Client) RunLoad(ctx context.Context, name string, data Data, params LoadParams) (*LoadResult, error) {
	op, ok := c.ops[name]
	if !ok {
		return nil, unknownOperationError(name)
	}
	return RunLoad(ctx, op, data, params)
}

// RunLoad calls op repeatedly through its full validate and dispatch path,
// throttled to params.RequestsPerSecond across all workers. Data that fails
// validation is rejected before any request is sent.
func RunLoad(ctx context.Context, op *Operation, data Data, params LoadParams) (*LoadResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	data, err := op.prepare(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, params.Duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(params.RequestsPerSecond), params.RequestsPerSecond)

	var (
		totalReqs      int64
		successfulReqs int64
		failedReqs     int64
		latencies      []time.Duration
		statusCodes    = make(map[int]int64)
		mu             sync.Mutex
		wg             sync.WaitGroup
	)

	startTime := time.Now()

	for i := 0; i < params.ConcurrentUsers; i++ {
		var delay time.Duration
		if params.RampUp > 0 {
			delay = time.Duration(int64(params.RampUp) * int64(i) / int64(params.ConcurrentUsers))
		}

		wg.Add(1)
		go func(delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}
			}

			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				reqStart := time.Now()
				resp, err := op.Do(ctx, data)
				reqDuration := time.Since(reqStart)

				// Requests cut off by the end of the run are not counted.
				if err != nil && ctx.Err() != nil {
					return
				}

				atomic.AddInt64(&totalReqs, 1)

				mu.Lock()
				if err != nil {
					failedReqs++
					var se *transport.StatusError
					if errors.As(err, &se) {
						statusCodes[se.StatusCode]++
					}
				} else {
					successfulReqs++
					latencies = append(latencies, reqDuration)
					statusCodes[resp.StatusCode]++
				}
				mu.Unlock()
			}
		}(delay)
	}

	wg.Wait()
	totalDuration := time.Since(startTime)

	result := &LoadResult{
		Operation:        op.Name,
		TotalRequests:    totalReqs,
		SuccessfulReqs:   successfulReqs,
		FailedReqs:       failedReqs,
		Duration:         totalDuration,
		StatusCodeCounts: statusCodes,
	}

	if totalReqs > 0 {
		result.Throughput = float64(totalReqs) / totalDuration.Seconds()
		result.ErrorRate = float64(failedReqs) / float64(totalReqs) * 100
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		result.MinLatency = latencies[0]
		result.MaxLatency = latencies[len(latencies)-1]
		result.LatencyP50 = latencies[percentileIndex(len(latencies), 50)]
		result.LatencyP95 = latencies[percentileIndex(len(latencies), 95)]
		result.LatencyP99 = latencies[percentileIndex(len(latencies), 99)]

		var sum time.Duration
		for _, lat := range latencies {
			sum += lat
		}
		result.AvgLatency = sum / time.Duration(len(latencies))
	}

	return result, nil
}

// percentileIndex calculates the index for a given percentile
func percentileIndex(n int, percentile int) int {
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*float64(percentile)/100.0)) - 1
	if index < 0 {
		index = 0
	}
	if index >= n {
		index = n - 1
	}
	return index
}

// Format renders the result as a plain-text report.
func (r *LoadResult) Format() string {
	output := fmt.Sprintf(`Load Test Results: %s
========================

Duration: %.2fs
Total Requests: %d
Successful: %d
Failed: %d
Error Rate: %.2f%%

Throughput: %.2f req/sec

Latency Statistics:
  Min:     %v
  Average: %v
  P50:     %v
  P95:     %v
  P99:     %v
  Max:     %v

Status Code Distribution:`,
		r.Operation,
		r.Duration.Seconds(),
		r.TotalRequests,
		r.SuccessfulReqs,
		r.FailedReqs,
		r.ErrorRate,
		r.Throughput,
		r.MinLatency,
		r.AvgLatency,
		r.LatencyP50,
		r.LatencyP95,
		r.LatencyP99,
		r.MaxLatency,
	)

	codes := make([]int, 0, len(r.StatusCodeCounts))
	for code := range r.StatusCodeCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		count := r.StatusCodeCounts[code]
		percentage := float64(count) / float64(r.TotalRequests) * 100
		output += fmt.Sprintf("\n  %d: %d (%.1f%%)", code, count, percentage)
	}

	return output
}
