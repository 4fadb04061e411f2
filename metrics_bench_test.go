package goVerify

import (
	"testing"
	"time"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricCheckSuccess)
		}
	})
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Inc(MetricCheckSuccess)
	}
}

func BenchmarkMetricsObserve(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricCheckLatency, 7*time.Millisecond)
		}
	})
}

func BenchmarkRecordCodecRoundTrip(b *testing.B) {
	record := testRecordForBench()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		encoded, err := encodeRecord(record)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := decodeRecord(encoded); err != nil {
			b.Fatal(err)
		}
	}
}

func testRecordForBench() *Record {
	now := time.Now()
	return &Record{
		Token:       "bench-token",
		TenantID:    "0",
		Channel:     ChannelSMS,
		Destination: "+15550001111",
		CreatedAt:   now.UnixMilli(),
		ExpiresAt:   now.Add(2 * time.Minute).UnixMilli(),
		RetainUntil: now.Add(time.Hour).UnixMilli(),
		MaxAttempts: 3,
		Status:      StatusPending,
	}
}
