package perf

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dSer/cmd/sample"
	"github.com/ValentinKolb/dSer/cmd/util"
	"github.com/ValentinKolb/dSer/lib/backend"
	"github.com/ValentinKolb/dSer/lib/compress"
	"github.com/ValentinKolb/dSer/lib/config"
	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/ValentinKolb/dSer/lib/stats"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger("cmd")

	// PerfCmd benchmarks all backends
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Benchmark serialization with every backend",
		Long: `Benchmark serializing and deserializing sample readings with every backend and the configured compression (or all codecs with --all-codecs).
Prints the time per operation, the payload size distribution and optionally exports the results as CSV and the collected metrics in the Prometheus text format.`,
		Args:    cobra.NoArgs,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	perfReadings  = 64
	perfAllCodecs = false
	perfSkip      = make([]string, 0)
)

func init() {
	key := "readings"
	PerfCmd.Flags().Int(key, 64, util.WrapString("Number of distinct sample readings cycled through by the benchmarks"))
	key = "all-codecs"
	PerfCmd.Flags().Bool(key, false, util.WrapString("Benchmark every compression codec instead of the configured one"))
	key = "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated backends, codecs or operations - e.g. FastLocal,zstd,deserialize)"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	PerfCmd.Flags().Bool(key, false, util.WrapString("Print the collected metrics in the Prometheus text format"))
}

func processPerfConfig(_ *cobra.Command, _ []string) error {
	perfReadings = viper.GetInt("readings")
	perfAllCodecs = viper.GetBool("all-codecs")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfReadings < 1 {
		return errors.Errorf("invalid number of readings %d", perfReadings)
	}
	return nil
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	name        string
	backend     string
	compression string
	op          stats.Op
	result      testing.BenchmarkResult
}

func run(_ *cobra.Command, _ []string) error {
	conf, err := util.GetConfig()
	if err != nil {
		return err
	}

	fmt.Println("Performance testing tool for dSer backends")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(conf.String())
	fmt.Printf("Readings: %d\n", perfReadings)
	fmt.Println()

	readings := make([]sample.Reading, perfReadings)
	for i := range readings {
		readings[i] = sample.NewReading(i)
	}

	codecs := []string{conf.Compression}
	if perfAllCodecs {
		codecs = compress.Names()
	}

	rec := stats.NewRecorder()
	var results []perfResult

	fmt.Println("starting tests...")
	for _, id := range backend.IDs() {
		for _, codec := range codecs {
			if shouldSkip(id) || shouldSkip(codec) {
				continue
			}
			c := *conf
			c.Backend, c.Compression, c.Framed = id, codec, false

			res, err := benchmarkCase(&c, readings, rec)
			if err != nil {
				return err
			}
			results = append(results, res...)
		}
	}

	printSizes(rec)

	// Write results to csv is specified
	if conf.CSVPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", conf.CSVPath)
		if err := writeResultsToCSV(conf.CSVPath, results, perfReadings); err != nil {
			return err
		}
	}

	if conf.Metrics {
		fmt.Println()
		rec.WritePrometheus(os.Stdout)
	}
	return nil
}

// benchmarkCase runs the serialize and deserialize benchmarks of one backend
// and codec combination
func benchmarkCase(conf *config.Config, readings []sample.Reading, rec *stats.Recorder) ([]perfResult, error) {
	key := conf.Backend + "/" + conf.Compression

	// encode once up front, this also verifies the combination works
	payloads := make([][]byte, len(readings))
	for i, r := range readings {
		p, err := util.Encode(conf, sample.Codec, r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", key)
		}
		payloads[i] = p
	}

	m, err := backend.NewSizeModel(conf.Backend)
	if err != nil {
		return nil, err
	}
	estimated := 0
	for _, r := range readings {
		estimated += serial.SizeOf(sample.Codec, r, m)
	}
	log.Debugf("%s: estimated %d bytes for %d readings", key, estimated, len(readings))

	var results []perfResult

	if !shouldSkip(string(stats.OpSerialize)) {
		result := testing.Benchmark(func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				start := time.Now()
				p, err := util.Encode(conf, sample.Codec, readings[i%len(readings)])
				rec.Observe(stats.OpSerialize, key, start, len(p), err)
				if err != nil {
					log.Errorf("(%s) - error serializing: %v", key, err)
				}
			}
		})
		results = append(results, perfResult{key + " serialize", conf.Backend, conf.Compression, stats.OpSerialize, result})
		printResult(key+" serialize", result)
	}

	if !shouldSkip(string(stats.OpDeserialize)) {
		result := testing.Benchmark(func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				p := payloads[i%len(payloads)]
				start := time.Now()
				_, err := util.Decode(conf, sample.Codec, p)
				rec.Observe(stats.OpDeserialize, key, start, len(p), err)
				if err != nil {
					log.Errorf("(%s) - error deserializing: %v", key, err)
				}
			}
		})
		results = append(results, perfResult{key + " deserialize", conf.Backend, conf.Compression, stats.OpDeserialize, result})
		printResult(key+" deserialize", result)
	}

	return results, nil
}

// ----------------------------------------------------------------------------
// Helper functions
// ----------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, s := range perfSkip {
		if s = strings.TrimSpace(s); s != "" && strings.EqualFold(s, test) {
			return true
		}
	}
	return false
}

func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-36sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-36s%.0fns/op (%s/op)\t%.0f ops/sec\t%d B/op\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec, result.AllocedBytesPerOp())
}

// printSizes prints the payload size distribution of every serialize case
func printSizes(rec *stats.Recorder) {
	fmt.Println()
	fmt.Println("Payload sizes:")
	fmt.Printf("%-24s%8s%8s%8s%8s%8s\n", "", "min", "avg", "median", "p99", "max")

	for _, key := range rec.Keys() {
		op, name, _ := strings.Cut(key, ".")
		if stats.Op(op) != stats.OpSerialize {
			continue
		}
		h := rec.Sizes(stats.OpSerialize, name)
		lo, hi := h.Range()
		fmt.Printf("%-24s%8d%8d%8d%8d%8d\n", name, lo, h.AverageSize(), h.MedianEstimate(), h.PercentileEstimate(99), hi)
	}
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult, readings int) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Backend", "Compression", "Operation",
		"NsPerOp", "DurationPerOp", "OpsPerSec", "BytesPerOp", "AllocsPerOp", "Skipped",
		"Readings",
	}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, r := range results {
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if r.result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(r.result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			r.name,
			r.backend,
			r.compression,
			string(r.op),
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatInt(r.result.AllocedBytesPerOp(), 10),
			strconv.FormatInt(r.result.AllocsPerOp(), 10),
			skipped,
			strconv.Itoa(readings),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write row for test %s", r.name)
		}
	}

	return nil
}
