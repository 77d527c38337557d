package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/houseprice/pkg/config"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// app is the state shared by every subcommand once the configuration is read.
type app struct {
	cfgFile  string
	v        *viper.Viper
	cfg      *config.Config
	provider *log.ZerologProvider
	logOut   io.Writer
}

// newRootCmd builds the command tree. Stage logs go to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{v: config.New(), logOut: logOut}

	root := &cobra.Command{
		Use:   "houseprice",
		Short: "Train and serve a house sale-price regression model",
		Long: `houseprice loads a housing CSV, cleans it, derives features, trains
five regression candidates on a reproducible split and persists the one with
the highest held-out R².`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml or json)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newCleanCmd(a))
	root.AddCommand(newEngineerCmd(a))
	root.AddCommand(newTrainCmd(a))
	root.AddCommand(newPipelineCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", a.cfgFile)
		}
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.provider = log.NewZerologProvider(cfg.Level(), a.logOut)
	a.provider.GetLoggerWithName("cli").Debug("Configuration loaded",
		"config_file", a.v.ConfigFileUsed(),
		"log_level", cfg.LogLevel,
	)
	return nil
}

func (a *app) logger(component string) log.Logger {
	return a.provider.GetLoggerWithName(component)
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("[houseprice]"), fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.CyanString("[houseprice]"), fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.YellowString("[houseprice]"), fmt.Sprintf(format, args...))
}

// overrideString replaces *dst with the flag value when the user set the flag.
func overrideString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}
