package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/chanlog"
	"github.com/user/chanlog/internal/config"
	"github.com/user/chanlog/internal/logging"
	"github.com/user/chanlog/internal/otelsetup"
)

var (
	cfgFile        string
	channelPath    string
	processCfgPath string

	manager      *chanlog.Manager
	otelShutdown otelsetup.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "chanlogctl",
	Short: "chanlogctl inspects and replays chanlog channel definitions",
	Long:  `A developer-focused terminal tool for creating channels, installing sinks, and inspecting dispatch state from a declarative channel file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		procCfg := config.Default()
		if processCfgPath != "" {
			loaded, err := config.Load(processCfgPath)
			if err != nil {
				return err
			}
			procCfg = loaded
		}

		shutdown, err := otelsetup.Init(cmd.Context(), procCfg.Observability.OTLP)
		if err != nil {
			return err
		}
		otelShutdown = shutdown

		cf, err := loadChannelFile(viper.GetString("channels"))
		if err != nil {
			return err
		}
		mgr, err := apply(cf, logging.NewDefault(), procCfg.Composite.InitialWait)
		if err != nil {
			return err
		}
		manager = mgr
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if otelShutdown == nil {
			return nil
		}
		return otelShutdown(context.Background())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chanlogctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&channelPath, "channels", "channels.yaml", "channel definition file to load")
	rootCmd.PersistentFlags().StringVar(&processCfgPath, "process-config", "", "chanlog process configuration file (composite/observability/metrics knobs)")
	viper.BindPFlag("channels", rootCmd.PersistentFlags().Lookup("channels"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chanlogctl")
	}

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
