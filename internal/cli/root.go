package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "propscan",
	Short: "propscan - extract prop declarations from Ruby source",
	Long: `propscan statically analyzes Ruby source files and extracts, per class or
module, the properties declared through prop-style DSL macros (prop, token_prop,
created_prop, ...), the class's constant ancestors and its model reference.
Macro calls that cannot be attributed statically are reported as problem
locations.

Records can be printed as JSON or YAML, stored in SQLite, kept current while
files change, and served to coding assistants over MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <dir>/.propscan/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig resolves global flags, which may also come from PROPSCAN_CONFIG
// and PROPSCAN_VERBOSE. Project configuration is loaded per command from the
// scanned directory.
func initConfig() {
	viper.SetEnvPrefix("PROPSCAN")
	viper.BindEnv("config")
	viper.BindEnv("verbose")

	cfgFile = viper.GetString("config")
	verbose = viper.GetBool("verbose")

	if verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		if cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", cfgFile)
		}
	}
}

// logOutput silences log output unless verbose is set. Commands whose stdout
// is machine-readable log to stderr only.
func logOutput(quiet bool) io.Writer {
	if quiet && !verbose {
		return io.Discard
	}
	return os.Stderr
}
