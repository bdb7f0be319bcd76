package dnsbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successResult(latency, conn time.Duration) QueryResult {
	return QueryResult{Success: true, Latency: latency, ConnLatency: conn, Start: time.Now()}
}

func failedResult(kind ErrorKind) QueryResult {
	return QueryResult{Err: kind, Start: time.Now()}
}

func TestComputeStats(t *testing.T) {
	run := &ResolverRun{
		Resolver:  localResolver(),
		Transport: UDPTransport,
		Results: []QueryResult{
			successResult(10*time.Millisecond, time.Millisecond),
			successResult(20*time.Millisecond, time.Millisecond),
			successResult(30*time.Millisecond, time.Millisecond),
			successResult(40*time.Millisecond, time.Millisecond),
			successResult(50*time.Millisecond, time.Millisecond),
		},
	}

	st := ComputeStats(run)

	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 5, st.SuccessCount)
	assert.Zero(t, st.TimeoutCount)
	assert.Equal(t, 100.0, st.SuccessRate)

	require.NotNil(t, st.Latency)
	assert.Equal(t, 10*time.Millisecond, st.Latency.Min)
	assert.Equal(t, 50*time.Millisecond, st.Latency.Max)
	assert.Equal(t, 30*time.Millisecond, st.Latency.Avg)
	assert.Equal(t, 30*time.Millisecond, st.Latency.Median)
	assert.Equal(t, 50*time.Millisecond, st.Latency.P95, "nearest rank of 5 values at p95 is the maximum")
	assert.Equal(t, 50*time.Millisecond, st.Latency.P99)
	assert.Equal(t, 10*time.Millisecond, st.Latency.Jitter, "consecutive steps of 10ms")
	assert.Equal(t, time.Millisecond, st.Latency.AvgConn)
}

func TestComputeStats_mixedResults(t *testing.T) {
	run := &ResolverRun{
		Results: []QueryResult{
			successResult(10*time.Millisecond, 0),
			failedResult(Timeout),
			successResult(20*time.Millisecond, 0),
			failedResult(ConnectionRefused),
			{Success: false, Rcode: 2}, // SERVFAIL, no transport error
			successResult(30*time.Millisecond, 0),
		},
	}

	st := ComputeStats(run)

	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 3, st.SuccessCount)
	assert.Equal(t, 1, st.TimeoutCount, "only deadline failures count as timeouts")
	assert.Equal(t, 50.0, st.SuccessRate)

	require.NotNil(t, st.Latency)
	assert.Equal(t, 20*time.Millisecond, st.Latency.Avg, "failed queries contribute no latency")
}

func TestComputeStats_successRateRounding(t *testing.T) {
	run := &ResolverRun{
		Results: []QueryResult{
			successResult(time.Millisecond, 0),
			successResult(time.Millisecond, 0),
			failedResult(Timeout),
		},
	}

	st := ComputeStats(run)

	assert.Equal(t, 66.7, st.SuccessRate, "success rate is rounded to one decimal")
}

func TestComputeStats_allFailed(t *testing.T) {
	run := &ResolverRun{
		Results: []QueryResult{
			failedResult(Timeout),
			failedResult(Timeout),
		},
	}

	st := ComputeStats(run)

	assert.Equal(t, 2, st.Total)
	assert.Zero(t, st.SuccessCount)
	assert.Equal(t, 0.0, st.SuccessRate)
	assert.Nil(t, st.Latency, "a fully failed run has no latency distribution")
}

func TestComputeStats_empty(t *testing.T) {
	st := ComputeStats(&ResolverRun{})

	assert.Zero(t, st.Total)
	assert.Equal(t, 0.0, st.SuccessRate)
	assert.Nil(t, st.Latency)
}

func TestComputeStats_deterministic(t *testing.T) {
	run := &ResolverRun{
		Results: []QueryResult{
			successResult(13*time.Millisecond, time.Millisecond),
			successResult(7*time.Millisecond, 2*time.Millisecond),
			failedResult(Timeout),
			successResult(21*time.Millisecond, 0),
		},
	}

	first := ComputeStats(run)
	second := ComputeStats(run)

	assert.Equal(t, first, second, "identical runs reduce to identical stats")
}

func TestJitter(t *testing.T) {
	tests := []struct {
		name      string
		latencies []float64
		want      time.Duration
	}{
		{
			name:      "fewer than two samples",
			latencies: []float64{float64(10 * time.Millisecond)},
			want:      0,
		},
		{
			name: "constant latency has zero jitter",
			latencies: []float64{
				float64(10 * time.Millisecond),
				float64(10 * time.Millisecond),
				float64(10 * time.Millisecond),
			},
			want: 0,
		},
		{
			name: "alternating latency",
			latencies: []float64{
				float64(10 * time.Millisecond),
				float64(30 * time.Millisecond),
				float64(10 * time.Millisecond),
			},
			want: 20 * time.Millisecond,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jitter(tt.latencies))
		})
	}
}
