package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/dSer/cmd/sample"
	"github.com/ValentinKolb/dSer/cmd/util"
	"github.com/ValentinKolb/dSer/lib/backend"
	"github.com/ValentinKolb/dSer/lib/config"
	"github.com/ValentinKolb/dSer/lib/dataio"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger("cmd")

	// InspectCmd prints the content of serialized payloads
	InspectCmd = &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the value tree of serialized payloads",
		Long: `Read payloads from a file (or stdin) and print their value tree.
Portable and String payloads describe their own structure and are printed without knowing the serialized type.
FastLocal payloads are not self-describing; use --as-sample to decode them as sample readings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}
)

func init() {
	key := "as-sample"
	InspectCmd.Flags().Bool(key, false, util.WrapString("Decode the payloads as sample readings instead of printing the generic value tree"))
}

func run(_ *cobra.Command, args []string) error {
	conf, err := util.GetConfig()
	if err != nil {
		return err
	}

	in, err := util.OpenInput(args)
	if err != nil {
		return err
	}
	defer in.Close()

	asSample := viper.GetBool("as-sample")
	if !asSample && conf.Backend == backend.FastID {
		return errors.Errorf("%s payloads need --as-sample", conf.Backend)
	}

	// a single uncompressed payload is inspected while it is read
	if !asSample && !conf.Framed && conf.Compression == "none" {
		src := dataio.NewReaderSource(in)
		err := backend.Inspect(conf.Backend, src, os.Stdout)
		if readErr := src.Err(); readErr != nil {
			return errors.Wrap(readErr, "failed to read input")
		}
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "failed to read input")
	}
	payloads, err := util.Split(conf, data)
	if err != nil {
		return err
	}
	log.Debugf("inspecting %d payloads of %d bytes", len(payloads), len(data))

	for i, payload := range payloads {
		if len(payloads) > 1 {
			fmt.Printf("# payload %d (%d bytes)\n", i, len(payload))
		}
		if err := printPayload(conf, payload, asSample); err != nil {
			return errors.Wrapf(err, "payload %d", i)
		}
	}
	return nil
}

func printPayload(conf *config.Config, payload []byte, asSample bool) error {
	if asSample {
		r, err := util.Decode(conf, sample.Codec, payload)
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", r)
		return nil
	}

	src, err := util.Source(conf, payload)
	if err != nil {
		return err
	}
	return backend.Inspect(conf.Backend, src, os.Stdout)
}
