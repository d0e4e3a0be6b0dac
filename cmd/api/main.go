package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskhive/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskhive",
		Short: "TaskHive task tracking API",
		Long:  "TaskHive is a multi-user task tracking backend with subtasks, due date reminders and JWT authentication",
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSweepCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
