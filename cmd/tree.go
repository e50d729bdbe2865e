package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-registry/framework/inspect"
)

var (
	treeJSON  bool
	treeDepth int

	nsColor    = color.New(color.FgCyan, color.Bold).SprintFunc()
	svcColor   = color.New(color.FgGreen).SprintFunc()
	aliasColor = color.New(color.FgYellow).SprintFunc()
	dimColor   = color.New(color.FgHiBlack).SprintFunc()
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the container tree",
	Long: `Print the container tree built from the definitions file.

Examples:
  # Whole tree
  registry tree -d registry.yaml

  # One subtree, two levels deep
  registry tree filesystem --depth 2

  # Machine readable
  registry tree --json | jq '.children[].path'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		target := a.Container
		if len(args) == 1 {
			if target, err = a.From(args[0]); err != nil {
				return err
			}
		}

		node := inspect.Snapshot(target, treeDepth)
		if treeJSON {
			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(node)
		}
		renderTree(cmd.OutOrStdout(), node)
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "print the snapshot as JSON")
	treeCmd.Flags().IntVar(&treeDepth, "depth", -1, "levels of nested containers to show (-1: all)")
	rootCmd.AddCommand(treeCmd)
}

// renderTree prints n as an indented tree:
//
//	/ (1 services, 0 cached)
//	├── config
//	├── sysdir → [/filesystem/system, folder]
//	└── filesystem/
//	    └── disk
func renderTree(w io.Writer, n inspect.Node) {
	fmt.Fprintf(w, "%s %s\n", nsColor(n.Path), dimColor(fmt.Sprintf("(%d services, %d cached)", len(n.Services), n.Cached)))
	renderChildren(w, n, "")
}

func renderChildren(w io.Writer, n inspect.Node, prefix string) {
	type line struct {
		text  string
		child *inspect.Node
	}
	var lines []line
	for _, s := range n.Services {
		lines = append(lines, line{text: svcColor(s)})
	}
	for _, alias := range slices.Sorted(maps.Keys(n.Aliases)) {
		lines = append(lines, line{text: aliasColor(alias) + " → " + n.Aliases[alias].String()})
	}
	for i := range n.Children {
		ch := &n.Children[i]
		lines = append(lines, line{text: nsColor(ch.Namespace + "/"), child: ch})
	}

	for i, l := range lines {
		branch, indent := "├── ", "│   "
		if i == len(lines)-1 {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(w, prefix+branch+l.text)
		if l.child != nil {
			renderChildren(w, *l.child, prefix+indent)
		}
	}
}
