package util

import (
	"strings"

	"github.com/ValentinKolb/dSer/lib/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var lines []string
	var line strings.Builder

	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

// InitConfig loads .env files and enables DSER_<flag> environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dser")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConfig reads the configuration from viper and validates it
func GetConfig() (*config.Config, error) {
	conf := &config.Config{
		Backend:     viper.GetString("backend"),
		Compression: viper.GetString("compression"),
		Framed:      viper.GetBool("framed"),
		Count:       max(viper.GetInt("count"), 1),
		Output:      viper.GetString("out"),
		CSVPath:     viper.GetString("csv"),
		Metrics:     viper.GetBool("metrics"),
		LogLevel:    viper.GetString("log-level"),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
