// Package config holds the runtime configuration of the dser commands
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dSer/lib/backend"
	"github.com/ValentinKolb/dSer/lib/compress"
	"github.com/ValentinKolb/dSer/lib/logging"
	"github.com/pkg/errors"
)

// Config holds the settings shared by all commands
type Config struct {
	// Backend is the backend identifier or alias (fast, portable, string)
	Backend string
	// Compression is the name of the compression codec, "none" disables it
	Compression string
	// Framed prefixes every payload with its size, so several payloads can
	// be stored in one stream
	Framed bool

	// Count is the number of payloads written by the sample command
	Count int
	// Output is the target file, empty for stdout
	Output string

	// CSVPath is the optional export path of the perf command
	CSVPath string
	// Metrics dumps the collected metrics after the perf command
	Metrics bool

	LogLevel string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Backend:     backend.PortableID,
		Compression: "none",
		Count:       1,
		LogLevel:    "info",
	}
}

// Validate checks all settings and replaces the backend alias by its
// identifier
func (c *Config) Validate() error {
	id, err := backend.ParseID(c.Backend)
	if err != nil {
		return err
	}
	c.Backend = id

	if _, err := compress.Get(c.Compression); err != nil {
		return err
	}
	if _, err := logging.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Count < 1 {
		return errors.Errorf("invalid count %d, must be at least 1", c.Count)
	}
	if c.Count > 1 && !c.Framed {
		return errors.New("writing more than one payload requires framing")
	}
	return nil
}

// Codec returns the configured compression codec
func (c *Config) Codec() (compress.Codec, error) {
	return compress.Get(c.Compression)
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Encoding")
	addField("Backend", c.Backend)
	addField("Compression", c.Compression)
	addField("Framed", strconv.FormatBool(c.Framed))

	addSection("Output")
	addField("Payloads", strconv.Itoa(c.Count))
	addField("Target", orDefault(c.Output, "stdout"))

	addSection("Benchmark")
	addField("CSV Export", orDefault(c.CSVPath, "disabled"))
	addField("Metrics Dump", strconv.FormatBool(c.Metrics))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
