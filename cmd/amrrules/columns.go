package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amrverse/amrrulebrowser/internal/resolve"
)

func newColumnsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List columns and manage hidden columns",
		Long: `Lists the columns of the loaded files with their descriptions. Hidden columns
are left out of browse and search output but are always exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runColumnsList(cmd)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runColumnsList(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "hide <column>...",
		Short: "Hide columns from display",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			hidden, err := sess.HideColumns(cmd.Context(), args...)
			if err != nil {
				return err
			}
			a.notice("Hidden columns: %d", len(hidden))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [column]...",
		Short: "Show hidden columns again (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			hidden, err := sess.ShowColumns(cmd.Context(), args...)
			if err != nil {
				return err
			}
			a.notice("Hidden columns: %d", len(hidden))
			return nil
		},
	})
	return cmd
}

func (a *app) runColumnsList(cmd *cobra.Command) error {
	sess, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	hidden := make(map[string]bool)
	for _, c := range sess.HiddenColumns(cmd.Context()) {
		hidden[c] = true
	}
	cols := sess.Engine.SearchColumns()
	if len(cols) == 0 {
		a.notice("No files loaded.")
		return nil
	}
	for _, c := range cols {
		mark := " "
		if hidden[c] {
			mark = "-"
		}
		tip, _ := resolve.HeaderTooltip(c)
		fmt.Fprintf(a.stdout, "%s %s\t%s\n", mark, c, tip)
	}
	return nil
}
