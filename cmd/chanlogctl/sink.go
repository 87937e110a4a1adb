package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sinkCmd)
	sinkCmd.AddCommand(sinkListCmd)
	sinkCmd.AddCommand(sinkFindCmd)
	sinkCmd.AddCommand(sinkInstallCmd)
	sinkCmd.AddCommand(sinkUninstallCmd)
	sinkCmd.AddCommand(sinkSetConditionCmd)

	addConditionFlags(sinkInstallCmd)
	addWriterFlags(sinkInstallCmd)
	addConditionFlags(sinkSetConditionCmd)
}

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Manage sinks installed on a channel",
}

var sinkListCmd = &cobra.Command{
	Use:   "list <channel>",
	Short: "List every sink installed on a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sinks, err := manager.ListSinks(args[0])
		if err != nil {
			return err
		}
		for _, s := range sinks {
			fmt.Printf("%s\tapp=%q module=%q\n", s.ID, s.Condition.Application, s.Condition.Module)
		}
		return nil
	},
}

var sinkFindCmd = &cobra.Command{
	Use:   "find <channel> <sink>",
	Short: "Show one sink's current handle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := manager.FindSink(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("id=%s app=%q module=%q\n", handle.ID, handle.Condition.Application, handle.Condition.Module)
		return nil
	},
}

// addConditionFlags registers the flags conditionSpecFromFlags reads.
func addConditionFlags(cmd *cobra.Command) {
	cmd.Flags().String("severity", "", "threshold severity")
	cmd.Flags().String("low", "", "range low severity")
	cmd.Flags().String("high", "", "range high severity")
	cmd.Flags().StringSlice("set", nil, "explicit severity set")
	cmd.Flags().String("application", "", "application scope")
	cmd.Flags().String("module", "", "module scope")
}

// addWriterFlags registers the flags writerSpecFromFlags reads.
func addWriterFlags(cmd *cobra.Command) {
	cmd.Flags().String("writer-type", "stdout", "writer type: stdout, file, http, kafka, nats, redis")
	cmd.Flags().String("path", "", "file writer path")
	cmd.Flags().String("url", "", "http/nats writer URL")
	cmd.Flags().StringToString("header", nil, "http writer header, repeatable (key=value)")
	cmd.Flags().StringSlice("broker", nil, "kafka broker, repeatable")
	cmd.Flags().String("topic", "", "kafka topic")
	cmd.Flags().String("subject", "", "nats subject")
	cmd.Flags().String("addr", "", "redis address")
	cmd.Flags().String("password", "", "redis password")
	cmd.Flags().Int("db", 0, "redis database index")
	cmd.Flags().String("stream", "", "redis stream name")
}

func conditionSpecFromFlags(cmd *cobra.Command) conditionSpec {
	severity, _ := cmd.Flags().GetString("severity")
	low, _ := cmd.Flags().GetString("low")
	high, _ := cmd.Flags().GetString("high")
	set, _ := cmd.Flags().GetStringSlice("set")
	application, _ := cmd.Flags().GetString("application")
	module, _ := cmd.Flags().GetString("module")
	return conditionSpec{
		Severity:    severity,
		Low:         low,
		High:        high,
		Set:         set,
		Application: application,
		Module:      module,
	}
}

func writerSpecFromFlags(cmd *cobra.Command) writerSpec {
	typ, _ := cmd.Flags().GetString("writer-type")
	path, _ := cmd.Flags().GetString("path")
	url, _ := cmd.Flags().GetString("url")
	headers, _ := cmd.Flags().GetStringToString("header")
	brokers, _ := cmd.Flags().GetStringSlice("broker")
	topic, _ := cmd.Flags().GetString("topic")
	subject, _ := cmd.Flags().GetString("subject")
	addr, _ := cmd.Flags().GetString("addr")
	password, _ := cmd.Flags().GetString("password")
	db, _ := cmd.Flags().GetInt("db")
	stream, _ := cmd.Flags().GetString("stream")
	return writerSpec{
		Type:     typ,
		Path:     path,
		URL:      url,
		Headers:  headers,
		Brokers:  brokers,
		Topic:    topic,
		Subject:  subject,
		Addr:     addr,
		Password: password,
		DB:       db,
		Stream:   stream,
	}
}

var sinkInstallCmd = &cobra.Command{
	Use:   "install-sink <channel> <sink>",
	Short: "Install a sink on a channel from condition/writer flags",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, opts, err := buildSinkHandle(sinkSpec{
			ID:        args[1],
			Condition: conditionSpecFromFlags(cmd),
			Writer:    writerSpecFromFlags(cmd),
		}, 0)
		if err != nil {
			return err
		}
		_, err = manager.InstallSink(args[0], handle, opts)
		return err
	},
}

var sinkUninstallCmd = &cobra.Command{
	Use:   "uninstall-sink <channel> <sink>",
	Short: "Uninstall a sink from a channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := manager.UninstallSink(args[0], args[1])
		return err
	},
}

var sinkSetConditionCmd = &cobra.Command{
	Use:   "set-condition <channel> <sink>",
	Short: "Replace a sink's match condition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cond, err := buildCondition(conditionSpecFromFlags(cmd))
		if err != nil {
			return err
		}
		_, err = manager.SetCondition(args[0], args[1], cond)
		return err
	},
}
