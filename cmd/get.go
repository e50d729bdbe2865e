package cmd

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var (
	getNamespace string
	getFresh     bool
)

var getCmd = &cobra.Command{
	Use:   "get <name> [args...]",
	Short: "Resolve a service and print it as JSON",
	Long: `Resolve a service from the tree and print the instance as JSON.

Extra arguments are passed as invocation arguments; numbers and booleans are
converted, everything else is passed as a string.

Examples:
  registry get config
  registry get folder --ns /filesystem/system
  registry get greeter world --fresh`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		ns, err := a.From(getNamespace)
		if err != nil {
			return err
		}

		invocation := parseArgs(args[1:])
		resolve := ns.Get
		if getFresh {
			resolve = ns.Fresh
		}
		instance, err := resolve(args[0], invocation...)
		if err != nil {
			return err
		}

		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(instance); err != nil {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%#v\n", instance)
			return err
		}
		return nil
	},
}

func init() {
	getCmd.Flags().StringVarP(&getNamespace, "ns", "n", "/", "namespace path to resolve from")
	getCmd.Flags().BoolVar(&getFresh, "fresh", false, "build a new instance instead of using the cache")
	rootCmd.AddCommand(getCmd)
}

// parseArgs converts CLI words into invocation arguments.
func parseArgs(words []string) []any {
	out := make([]any, 0, len(words))
	for _, w := range words {
		if i, err := strconv.Atoi(w); err == nil {
			out = append(out, i)
			continue
		}
		if f, err := strconv.ParseFloat(w, 64); err == nil {
			out = append(out, f)
			continue
		}
		if b, err := strconv.ParseBool(w); err == nil {
			out = append(out, b)
			continue
		}
		out = append(out, w)
	}
	return out
}
