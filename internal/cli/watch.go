package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fieldservice/jobvisit/internal/scope"
)

type ScopeWatchOptions struct {
	GlobalOptions

	Interval time.Duration
	Output   string
}

func newCmdScopeWatch() *cobra.Command {
	o := &ScopeWatchOptions{GlobalOptions: DefaultGlobalOptions(), Interval: 30 * time.Second}
	cmd := &cobra.Command{
		Use:   "watch KIND/ID",
		Short: "Print a scope list every time another client changes it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.Run(ctx, args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ScopeWatchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.DurationVar(&o.Interval, "interval", o.Interval, "Time between polls; each poll is jittered by about a tenth")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
}

func (o *ScopeWatchOptions) Validate(args []string) error {
	get := ScopeGetOptions{Output: o.Output}
	if err := get.Validate(args); err != nil {
		return err
	}
	if o.Interval < time.Second {
		return fmt.Errorf("interval must be at least 1s")
	}
	return nil
}

func (o *ScopeWatchOptions) Run(ctx context.Context, args []string) error {
	ref, _ := parseScopeRef(args[0])
	c, err := o.ScopeClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	items, err := c.GetScope(ctx, ref)
	if err != nil {
		return fmt.Errorf("reading scope %s: %w", ref, err)
	}

	session := scope.NewSession(ref, items, c)
	defer session.Close()

	return watch(ctx, os.Stdout, scope.NewRefresher(c, session, o.Interval, scope.WithOnChange(printer(os.Stdout, o.Output))), session.Items(), o.Output)
}

func watch(ctx context.Context, out io.Writer, r *scope.Refresher, initial []scope.Item, output string) error {
	if err := printItems(out, initial, output); err != nil {
		return err
	}
	r.Run(ctx)
	return nil
}

func printer(out io.Writer, output string) func([]scope.Item) {
	return func(items []scope.Item) {
		fmt.Fprintln(out)
		_ = printItems(out, items, output)
	}
}
