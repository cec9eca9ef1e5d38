package sample

import (
	"github.com/ValentinKolb/dSer/cmd/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	log = logger.GetLogger("cmd")

	// SampleCmd writes sample readings with the configured encoding
	SampleCmd = &cobra.Command{
		Use:   "sample",
		Short: "Serialize sample readings",
		Long: `Serialize one or more sample sensor readings with the configured backend and compression.
Several readings (--count) require --framed, which prefixes every payload with its size.
The output can be read back with "dser inspect".`,
		Args: cobra.NoArgs,
		RunE: run,
	}
)

func init() {
	key := "count"
	SampleCmd.Flags().Int(key, 1, util.WrapString("Number of readings to write"))
	key = "out"
	SampleCmd.Flags().StringP(key, "o", "", util.WrapString("Output file (default stdout)"))
}

func run(_ *cobra.Command, _ []string) error {
	conf, err := util.GetConfig()
	if err != nil {
		return err
	}

	payloads := make([][]byte, 0, conf.Count)
	total := 0
	for i := 0; i < conf.Count; i++ {
		payload, err := util.Encode(conf, Codec, NewReading(i))
		if err != nil {
			return err
		}
		payloads = append(payloads, payload)
		total += len(payload)
	}

	data, err := util.Join(conf, payloads)
	if err != nil {
		return err
	}
	if err := util.WriteOutput(conf, data); err != nil {
		return err
	}

	log.Infof("wrote %d %s payloads (%d bytes, %d with framing)", len(payloads), conf.Backend, total, len(data))
	return nil
}
