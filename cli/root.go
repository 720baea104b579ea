package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dorkmail/helper"
	"dorkmail/lib"
)

// Version is set at build time with -ldflags "-X dorkmail/cli.Version=...".
var Version = "dev"

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"domain":        "domain",
	"max-results":   "max_results",
	"output-folder": "output_folder",
	"proxy-file":    "proxy_file",
	"engine":        "engine",
	"timeout":       "timeout",
	"min-delay":     "min_delay",
	"max-delay":     "max_delay",
	"no-pin":        "no_pin",
	"pin":           "pin",
	"pretty":        "pretty",
	"keep-history":  "keep_history",
	"log-file":      "log_file",
	"debug":         "debug",
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute() error {
	// .env is optional.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(&Runner{Out: os.Stdout}).ExecuteContext(ctx)
}

// NewRootCommand builds the dorkmail command around runner.
func NewRootCommand(runner *Runner) *cobra.Command {
	var cfgFile string
	v := lib.NewViper()

	cmd := &cobra.Command{
		Use:   "dorkmail --domain example.com",
		Short: "Harvest a domain's email addresses from search-engine results",
		Long: `dorkmail searches for pages of a domain that mention its addresses,
downloads the result pages and the pages they link to, and extracts the
email addresses of the domain from what was downloaded.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lib.ReadConfigFile(v, cfgFile); err != nil {
				return err
			}
			cfg, err := lib.Load(v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if runner.Out == nil {
				runner.Out = cmd.OutOrStdout()
			}
			_, err = runner.Run(cmd.Context(), cfg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./dorkmail.yaml)")
	flags.String("domain", "", "target domain, e.g. example.com")
	flags.Int("max-results", lib.Defaults.MaxResults, "number of pages to download")
	flags.String("output-folder", lib.Defaults.OutputFolder, "folder for downloaded pages")
	flags.String("proxy-file", "", "file with one proxy per line")
	flags.String("engine", lib.Defaults.Engine, "search engine: google or duckduckgo")
	flags.Duration("timeout", lib.Defaults.Timeout, "per-request timeout")
	flags.Duration("min-delay", lib.Defaults.MinDelay, "minimum pause between requests")
	flags.Duration("max-delay", lib.Defaults.MaxDelay, "maximum pause between requests")
	flags.Bool("no-pin", false, "disable certificate pinning for the target domain")
	flags.String("pin", "", "expected SHA-256 fingerprint of the target's public key")
	flags.Bool("pretty", false, "pretty-print saved HTML, JavaScript and JSON")
	flags.Bool("keep-history", false, "keep the previous run as <output-folder>.old and diff the results")
	flags.String("log-file", lib.Defaults.LogFile, "log file")
	flags.Bool("debug", false, "debug logging, mirrored to stderr")

	if err := bindFlags(v, flags); err != nil {
		// Only reachable if flagKeys and the flag set disagree.
		panic(err)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			helper.InfoFprintln(cmd.OutOrStdout(), "dorkmail version", Version)
		},
	})

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", name, err)
		}
	}
	return nil
}
