package main

import (
	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "sqlpatch",
	Short:         "Apply and roll back versioned SQL patches",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Defaults
	v := viper.GetViper()
	v.SetDefault("config", "./"+constants.DefaultConfigFile)
	v.SetDefault("to", "")
	v.SetDefault("metrics_textfile", "")

	// Environment variables support: SQLPATCH_CONFIG, SQLPATCH_TO, ...
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to the sqlpatch config yaml")
	rootCmd.PersistentFlags().String("metrics-textfile", v.GetString("metrics_textfile"), "write Prometheus metrics to this file after the command")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("metrics_textfile", rootCmd.PersistentFlags().Lookup("metrics-textfile"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
