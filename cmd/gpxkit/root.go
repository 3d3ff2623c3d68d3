package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/planbiir/gpxkit/internal/config"
	"github.com/planbiir/gpxkit/internal/log"
)

const version = "v1.0.0"

// app is the state shared by the commands of one invocation.
type app struct {
	fs      afero.Fs
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// Execute runs the root command on the real filesystem.
func Execute() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "gpxkit",
		Short:        "Re-time, map and unpack GPX running tracks",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.gpxkit.yml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-development", false, "human readable development logging")
	a.bind(flags, "log.level", "log-level")
	a.bind(flags, "log.development", "log-development")

	rootCmd.AddCommand(newCorrectCmd(a))
	rootCmd.AddCommand(newMapCmd(a))
	rootCmd.AddCommand(newExtractCmd(a))

	return rootCmd
}

// bind makes the flag the highest priority source of key. A flag that is not
// set on the command line leaves the value from the config file or
// environment in place.
func (a *app) bind(flags *pflag.FlagSet, key, name string) {
	if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// initConfig reads the config file and environment and sets up logging.
func (a *app) initConfig() error {
	cfg, err := config.Load(a.v, a.fs, a.cfgFile)
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}
	a.cfg = cfg

	if used := a.v.ConfigFileUsed(); used != "" {
		log.Logger.Debug("using config file", zap.String("file", used))
	}
	return nil
}
