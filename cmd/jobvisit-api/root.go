package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fieldservice/jobvisit/internal/config"
)

type serviceFlags struct {
	address         string
	logLevel        string
	migrationFolder string
	policyFile      string
}

var (
	flags serviceFlags
)

var rootCmd = &cobra.Command{
	Use: "jobvisit-api",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)

	bindServiceFlags(rootCmd.PersistentFlags(), &flags)
}

func bindServiceFlags(fs *pflag.FlagSet, f *serviceFlags) {
	fs.StringVar(&f.address, "address", "", "Listen address, overrides JOBVISIT_ADDRESS")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level, overrides JOBVISIT_LOG_LEVEL")
	fs.StringVar(&f.migrationFolder, "migrations", "", "Folder holding the SQL migrations, overrides JOBVISIT_MIGRATIONS_FOLDER")
	fs.StringVar(&f.policyFile, "guardrail-policy", "", "Guardrail policy file, overrides JOBVISIT_GUARDRAIL_POLICY_FILE")
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if flags.address != "" {
		cfg.Service.Address = flags.address
	}
	if flags.logLevel != "" {
		cfg.Service.LogLevel = flags.logLevel
	}
	if flags.migrationFolder != "" {
		cfg.Service.MigrationFolder = flags.migrationFolder
	}
	if flags.policyFile != "" {
		cfg.Guardrail.PolicyFile = flags.policyFile
	}
	return cfg, nil
}
