// Package stats collects statistics about serialization calls.
//
// SizeHistogram tracks the distribution of payload sizes with exponential
// buckets from a few bytes up to gigabytes, so the size of many payloads can
// be summarized without keeping every sample.
//
// Recorder publishes per-backend call and error counters and size histograms
// to a VictoriaMetrics metric set (exportable in the Prometheus text format)
// and keeps latency timers in a go-metrics registry.
package stats
