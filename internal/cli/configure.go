package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/client"
)

type ConfigureOptions struct {
	GlobalOptions

	Role string
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Role:          auth.RoleTechnician,
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:   "configure --server-url URL --actor ID",
		Short: "Write the client configuration file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ConfigureOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Role, "role", o.Role, "Actor role: technician or office")
}

func (o *ConfigureOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Role != auth.RoleTechnician && o.Role != auth.RoleOffice {
		return fmt.Errorf("role must be %s or %s", auth.RoleTechnician, auth.RoleOffice)
	}
	cfg := client.NewDefault()
	cfg.Service.Server = o.ServerUrl
	cfg.Actor = client.Actor{ID: o.ActorID, Role: o.Role}
	return cfg.Validate()
}

func (o *ConfigureOptions) Run(ctx context.Context, args []string) error {
	if err := client.WriteConfig(o.ConfigFilePath, o.ServerUrl, client.Actor{ID: o.ActorID, Role: o.Role}); err != nil {
		return err
	}
	fmt.Printf("configuration written to %s\n", o.ConfigFilePath)
	return nil
}
