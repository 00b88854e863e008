package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fieldservice/jobvisit/internal/client"
	"github.com/fieldservice/jobvisit/internal/scope"
)

type GlobalOptions struct {
	ConfigFilePath string
	ServerUrl      string
	ActorID        string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultClientConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client configuration file")
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server, overrides the configuration file")
	fs.StringVar(&o.ActorID, "actor", o.ActorID, "Actor id sent with every request, overrides the configuration file")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Config reads the configuration file when there is one and applies the
// flag overrides on top.
func (o *GlobalOptions) Config() (*client.Config, error) {
	cfg := client.NewDefault()
	if _, err := os.Stat(o.ConfigFilePath); err == nil {
		// flags may fill in what the file lacks, so validation waits
		parsed, err := client.ParseConfigFile(o.ConfigFilePath)
		if parsed == nil {
			return nil, err
		}
		cfg = parsed
	}
	if o.ServerUrl != "" {
		cfg.Service.Server = o.ServerUrl
	}
	if o.ActorID != "" {
		cfg.Actor.ID = o.ActorID
	}
	return cfg, cfg.Validate()
}

func (o *GlobalOptions) ScopeClient() (*client.ScopeClient, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	return client.NewScopeClient(cfg)
}

// parseScopeRef reads KIND/ID, e.g. visit/3f2c...
func parseScopeRef(arg string) (scope.Ref, error) {
	kind, id, found := strings.Cut(arg, "/")
	ref := scope.Ref{Kind: scope.RefKind(strings.ToLower(kind)), ID: id}
	if !found || !ref.IsValid() {
		return scope.Ref{}, fmt.Errorf("invalid scope reference %q, expected (visit|job)/ID", arg)
	}
	return ref, nil
}
