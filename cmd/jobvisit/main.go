package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldservice/jobvisit/internal/cli"
)

func main() {
	command := NewJobVisitCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewJobVisitCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobvisit [flags] [options]",
		Short: "jobvisit works with the job visit service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdConfigure())
	cmd.AddCommand(cli.NewCmdScope())

	return cmd
}
