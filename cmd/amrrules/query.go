package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amrverse/amrrulebrowser/internal/deeplink"
	"github.com/amrverse/amrrulebrowser/internal/export"
	"github.com/amrverse/amrrulebrowser/internal/query"
	"github.com/amrverse/amrrulebrowser/internal/session"
)

// outputOptions are shared by browse and search.
type outputOptions struct {
	sort   string
	desc   bool
	format string
	link   bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.sort, "sort", "", "sort by column")
	f.BoolVar(&o.desc, "desc", false, "sort descending")
	f.StringVarP(&o.format, "format", "f", "tsv", "output format: tsv, csv, html")
	f.BoolVar(&o.link, "link", false, "print the deep link for the result on stderr")
}

func newBrowseCmd(a *app) *cobra.Command {
	var (
		organism     string
		filter       string
		filterColumn string
		out          outputOptions
	)
	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Browse all rules, one file, or one organism",
		Example: `  amrrules browse
  amrrules browse Klebsiella.txt --organism "Klebsiella pneumoniae"
  amrrules browse Escherichia_coli.txt --filter gyrA --sort breakpoint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := deeplink.State{Mode: deeplink.Browse, Organism: organism, Term: filter, Column: filterColumn}
			if len(args) == 1 {
				st.File = args[0]
			} else if organism != "" {
				return usageError{errors.New("--organism needs a file")}
			}
			return a.runQuery(cmd.Context(), st, out)
		},
	}
	cmd.Flags().StringVar(&organism, "organism", "", "restrict to one organism of the file")
	cmd.Flags().StringVar(&filter, "filter", "", "keep rows containing this text")
	cmd.Flags().StringVar(&filterColumn, "filter-column", "", "restrict --filter to one column")
	out.register(cmd)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		column string
		out    outputOptions
	)
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search every loaded rule",
		Example: `  amrrules search CTX-M
  amrrules search ceftriaxone --column drug -f csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := deeplink.State{Mode: deeplink.Search, Term: args[0], Column: column}
			if strings.TrimSpace(args[0]) == "" {
				return usageError{errors.New(query.UserMessage(query.ErrEmptyTerm))}
			}
			return a.runQuery(cmd.Context(), st, out)
		},
	}
	cmd.Flags().StringVarP(&column, "column", "c", "", "search one column (default all)")
	out.register(cmd)
	return cmd
}

// apply runs st against the session and applies the requested sort.
func (a *app) apply(ctx context.Context, st deeplink.State, sortCol string, desc bool) (*session.Session, query.Result, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, query.Result{}, err
	}
	res, err := sess.Apply(st)
	if err != nil {
		return sess, res, errors.New(query.UserMessage(err))
	}
	if sortCol != "" {
		if res, err = sess.Engine.SetSort(sortCol, desc); err != nil {
			return sess, res, err
		}
	}
	return sess, res, nil
}

func (a *app) runQuery(ctx context.Context, st deeplink.State, out outputOptions) error {
	sess, res, err := a.apply(ctx, st, out.sort, out.desc)
	if err != nil {
		return err
	}
	a.notice("%s", res.Message)
	if out.link {
		a.notice("%s", sess.Link())
	}
	if len(res.Rows) == 0 {
		return nil
	}

	switch strings.ToLower(out.format) {
	case "html":
		return sess.RenderHTML(ctx, a.stdout)
	default:
		f, err := export.ParseFormat(out.format)
		if err != nil {
			return usageError{err}
		}
		return export.Encode(a.stdout, sess.VisibleHeaders(ctx, res.Headers), res.Rows, f)
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format  string
		link    string
		output  string
		sortCol string
		desc    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a browse or search result as TSV or CSV",
		Long: `Runs the query described by a deep link (default: browse all) and writes every
column of the result to a file, amrrules_data.<format> unless -o is given.
Use -o - to write to stdout.`,
		Example: `  amrrules export --format csv
  amrrules export --link "/browse/Klebsiella.txt?organism=Klebsiella+pneumoniae"
  amrrules export --link "/search?q=CTX-M&col=gene" -o - --sort drug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return usageError{err}
			}
			sess, _, err := a.apply(cmd.Context(), deeplink.Decode(link), sortCol, desc)
			if err != nil {
				return err
			}
			blob, err := sess.Export(f)
			if errors.Is(err, export.ErrNoData) {
				return errors.New("no data to download")
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = a.stdout.Write(blob.Data)
				return err
			}
			if output == "" {
				output = blob.FileName
			}
			if err := os.WriteFile(output, blob.Data, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			a.notice("Wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "tsv", "export format: tsv or csv")
	cmd.Flags().StringVar(&link, "link", "/browse", "deep link selecting the rows")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default amrrules_data.<format>)")
	cmd.Flags().StringVar(&sortCol, "sort", "", "sort by column")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
