package stats

import (
	"math"
	"sort"
	"sync"
)

// sizeBoundaries are the inclusive upper bounds of the histogram buckets.
// Values above the last boundary fall into an overflow bucket.
var sizeBoundaries = []int{
	16, 64, 256, 1024, 4096, // bytes up to 4KB
	16384, 65536, 262144, 1048576, // up to 1MB
	4194304, 16777216, 67108864, // up to 64MB
	268435456, 1073741824, 4294967296, // up to 4GB
}

// SizeHistogram tracks the distribution of payload sizes.
//
// Thread-safe: all methods are safe for concurrent use
type SizeHistogram struct {
	mutex   sync.RWMutex
	buckets []int64 // one per boundary plus the overflow bucket
	count   int64
	sum     int64
	min     int
	max     int
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{buckets: make([]int64, len(sizeBoundaries)+1)}
}

// AddSample records a payload of size bytes
func (h *SizeHistogram) AddSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.buckets[sort.SearchInts(sizeBoundaries, size)]++
	if h.count == 0 || size < h.min {
		h.min = size
	}
	if size > h.max {
		h.max = size
	}
	h.count++
	h.sum += int64(size)
}

// Count returns the number of samples
func (h *SizeHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// Sum returns the total size of all samples
func (h *SizeHistogram) Sum() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.sum
}

// Range returns the smallest and the largest sample
func (h *SizeHistogram) Range() (min, max int) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.min, h.max
}

// AverageSize returns the mean sample size
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// MedianEstimate estimates the median size from the buckets
func (h *SizeHistogram) MedianEstimate() int {
	return h.PercentileEstimate(50)
}

// PercentileEstimate estimates the given percentile (0-100). The estimate is
// the middle of the bucket holding the percentile, clamped to the observed
// range.
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := max(int64(math.Ceil(float64(h.count)*float64(percentile)/100.0)), 1)
	cumulative := int64(0)
	for i, n := range h.buckets {
		cumulative += n
		if cumulative >= target {
			return min(max(bucketMid(i), h.min), h.max)
		}
	}
	return h.max
}

// Distribution returns the bucket boundaries and the share of samples in
// percent for every bucket. The last share belongs to the overflow bucket.
func (h *SizeHistogram) Distribution() ([]int, []float64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	shares := make([]float64, len(h.buckets))
	if h.count == 0 {
		return sizeBoundaries, shares
	}
	for i, n := range h.buckets {
		shares[i] = float64(n) * 100.0 / float64(h.count)
	}
	return sizeBoundaries, shares
}

// Reset clears all samples
func (h *SizeHistogram) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.count, h.sum, h.min, h.max = 0, 0, 0, 0
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}

func bucketMid(i int) int {
	switch {
	case i == 0:
		return sizeBoundaries[0] / 2
	case i < len(sizeBoundaries):
		return (sizeBoundaries[i-1] + sizeBoundaries[i]) / 2
	default:
		return sizeBoundaries[len(sizeBoundaries)-1] * 2
	}
}
