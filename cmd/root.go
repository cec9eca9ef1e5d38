package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/dSer/cmd/inspect"
	"github.com/ValentinKolb/dSer/cmd/perf"
	"github.com/ValentinKolb/dSer/cmd/sample"
	"github.com/ValentinKolb/dSer/cmd/util"
	"github.com/ValentinKolb/dSer/lib/backend"
	"github.com/ValentinKolb/dSer/lib/compress"
	"github.com/ValentinKolb/dSer/lib/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dser",
		Short: "backend-pluggable serialization engine",
		Long: fmt.Sprintf(`dSer (v%s)

A serialization engine converting typed values into byte streams and back.
Values are written with one of several interchangeable backends (a compact
native binary format, a portable self-describing format and a readable text
format) and can be compressed and framed for storage.

All flags can be set as environment variables in the format DSER_<flag>
(e.g. DSER_BACKEND=string), also from .env and .env.local files.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dSer",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dSer v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(sample.SampleCmd)
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "backend"
	RootCmd.PersistentFlags().StringP(key, "b", backend.PortableID, util.WrapString(fmt.Sprintf("backend to use (%s)", strings.Join(backend.IDs(), ", "))))
	key = "compression"
	RootCmd.PersistentFlags().StringP(key, "c", "none", util.WrapString(fmt.Sprintf("compression codec applied to every payload (%s)", strings.Join(compress.Names(), ", "))))
	key = "framed"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("prefix every payload with its size so several payloads fit in one stream"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("level at which logs will be output (debug, info, warn, error)"))
}

// setup binds the flags of the executed command and initializes the loggers
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return logging.InitLoggers(viper.GetString("log-level"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
