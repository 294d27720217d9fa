// Package main provides the amrrules command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.close()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

// usageError marks errors caused by bad arguments.
type usageError struct{ error }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "amrrules",
		Short: "Browse and search AMRrules interpretation rules",
		Long: `amrrules loads AMRrules rule files from GitHub or local disk, keeps them in a
local store, and lets you browse by organism, search across all rules, sort,
and export the results as TSV or CSV.`,
		Example: `  amrrules sync                                  # fetch rule files from GitHub
  amrrules browse Escherichia_coli.txt           # browse one organism file
  amrrules search ceftriaxone --column drug      # search one column
  amrrules export --link "/search?q=CTX-M" -o ctx.tsv`,
		Version:           fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.init(cmd) },
	}
	root.SetVersionTemplate("amrrules version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.amrrules.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.String("store", "", "path to the local DuckDB store (default ~/.amrrules/store.duckdb)")
	_ = a.v.BindPFlag("store.path", pf.Lookup("store"))

	root.AddCommand(
		newSyncCmd(a),
		newUploadCmd(a),
		newFilesCmd(a),
		newBrowseCmd(a),
		newSearchCmd(a),
		newExportCmd(a),
		newClearCmd(a),
		newColumnsCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}
