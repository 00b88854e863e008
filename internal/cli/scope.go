package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"

	"github.com/fieldservice/jobvisit/internal/scope"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

func NewCmdScope() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Read and edit visit scope lists.",
	}
	cmd.AddCommand(newCmdScopeGet())
	cmd.AddCommand(newCmdScopeAdd())
	cmd.AddCommand(newCmdScopeRemove())
	cmd.AddCommand(newCmdScopeWatch())
	return cmd
}

type ScopeGetOptions struct {
	GlobalOptions

	Output string
}

func newCmdScopeGet() *cobra.Command {
	o := &ScopeGetOptions{GlobalOptions: DefaultGlobalOptions()}
	cmd := &cobra.Command{
		Use:   "get KIND/ID",
		Short: "Display a scope list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

func (o *ScopeGetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *ScopeGetOptions) Validate(args []string) error {
	if _, err := parseScopeRef(args[0]); err != nil {
		return err
	}
	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func (o *ScopeGetOptions) Run(ctx context.Context, args []string) error {
	ref, _ := parseScopeRef(args[0])
	c, err := o.ScopeClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	items, err := c.GetScope(ctx, ref)
	if err != nil {
		return fmt.Errorf("reading scope %s: %w", ref, err)
	}
	return printItems(os.Stdout, items, o.Output)
}

type ScopeAddOptions struct {
	GlobalOptions

	Type  string
	Label string
	RefID string
	Qty   float64
}

func newCmdScopeAdd() *cobra.Command {
	o := &ScopeAddOptions{GlobalOptions: DefaultGlobalOptions(), Type: string(scope.ItemPart), Qty: -1}
	cmd := &cobra.Command{
		Use:   "add KIND/ID --label LABEL",
		Short: "Add an ad-hoc item to a scope list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

func (o *ScopeAddOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Type, "type", "t", o.Type, "Item type: part, trade or requirement")
	fs.StringVarP(&o.Label, "label", "l", o.Label, "Item label")
	fs.StringVar(&o.RefID, "ref-id", o.RefID, "Catalogue reference of the item")
	fs.Float64Var(&o.Qty, "qty", o.Qty, "Quantity; negative leaves it unset")
}

func (o *ScopeAddOptions) Validate(args []string) error {
	if _, err := parseScopeRef(args[0]); err != nil {
		return err
	}
	if !scope.ItemType(o.Type).IsValid() {
		return fmt.Errorf("unknown item type %q", o.Type)
	}
	if strings.TrimSpace(o.Label) == "" {
		return fmt.Errorf("a label is required")
	}
	return nil
}

func (o *ScopeAddOptions) Run(ctx context.Context, args []string) error {
	ref, _ := parseScopeRef(args[0])
	return editScope(ctx, o.GlobalOptions, ref, func(s *scope.Session) error {
		item, err := s.AddAdHoc(scope.ItemType(o.Type), o.Label)
		if err != nil {
			return err
		}
		if o.RefID == "" && o.Qty < 0 {
			return nil
		}
		return s.Update(item.Key, func(it *scope.Item) {
			it.RefID = o.RefID
			if o.Qty >= 0 {
				qty := o.Qty
				it.Qty = &qty
			}
		})
	})
}

type ScopeRemoveOptions struct {
	GlobalOptions
}

func newCmdScopeRemove() *cobra.Command {
	o := &ScopeRemoveOptions{GlobalOptions: DefaultGlobalOptions()}
	cmd := &cobra.Command{
		Use:   "remove KIND/ID KEY...",
		Short: "Remove items from a scope list.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseScopeRef(args[0])
			if err != nil {
				return err
			}
			return editScope(cmd.Context(), o.GlobalOptions, ref, func(s *scope.Session) error {
				for _, key := range args[1:] {
					if err := s.Remove(key); err != nil {
						return err
					}
				}
				return nil
			})
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

// editScope opens a session on the current server list, applies fn and
// saves right away instead of waiting for the quiet period.
func editScope(ctx context.Context, o GlobalOptions, ref scope.Ref, fn func(s *scope.Session) error) error {
	c, err := o.ScopeClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	server, err := c.GetScope(ctx, ref)
	if err != nil {
		return fmt.Errorf("reading scope %s: %w", ref, err)
	}

	session := scope.NewSession(ref, server, c)
	defer session.Close()

	if err := fn(session); err != nil {
		return err
	}
	if err := session.Flush(ctx); err != nil {
		return fmt.Errorf("saving scope %s: %w", ref, err)
	}
	return printItems(os.Stdout, session.Items(), "")
}

func printItems(out io.Writer, items []scope.Item, output string) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshalling scope: %w", err)
		}
		fmt.Fprintf(out, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshalling scope: %w", err)
		}
		fmt.Fprintf(out, "%s\n", string(marshalled))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tLABEL\tSOURCE\tQTY")
	for _, it := range items {
		qty := ""
		if it.Qty != nil {
			qty = strconv.FormatFloat(*it.Qty, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Key, it.Type, it.Label, it.Source, qty)
	}
	return w.Flush()
}
