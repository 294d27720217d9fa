package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amrverse/amrrulebrowser/internal/ingest"
	"github.com/amrverse/amrrulebrowser/internal/rules"
)

func newSyncCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch rule files from GitHub into the local store",
		Long: `Lists the rule files in the configured GitHub repository and fetches the ones
not yet in the local store, then refreshes the CARD drug name mapping. Files that
fail to download are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			report := sess.Sync(cmd.Context(), ingest.SyncOptions{Refresh: refresh})
			a.printReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch files already in the store")
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Add local rule files to the store",
		Long:  "Reads local tab-separated rule files and stores them, replacing files with the same name.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			report := sess.Upload(cmd.Context(), ingest.FromPaths(args))
			a.printReport(report)
			if len(report.Fetched) == 0 {
				return fmt.Errorf("no files could be read")
			}
			return nil
		},
	}
}

func (a *app) printReport(r *ingest.Report) {
	for _, fe := range r.Failed {
		a.notice("Warning: %v", fe)
	}
	a.notice("%s", r.Message())
}

func newFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List loaded files and browse targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			files := sess.Store.SortedFiles()
			if len(files) == 0 {
				a.notice("No files loaded.")
				return nil
			}
			for _, f := range files {
				fmt.Fprintf(a.stdout, "%s\t%s\t%d rows\t%s\n",
					f.Name, rules.FormatFileName(f.Name), len(f.Rows), f.LastModified.Format("2006-01-02"))
				if orgs := f.Organisms(); len(orgs) > 1 {
					fmt.Fprintf(a.stdout, "\torganisms: %s\n", strings.Join(orgs, "; "))
				}
			}
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all loaded files from the local store",
		Long:  "Removes every loaded file from the local store. Run sync again to re-fetch the defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := sess.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clearing store: %w", err)
			}
			a.notice("All data cleared.")
			return nil
		},
	}
}
