package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage amrrules configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.amrrules.yaml.",
		Example: `  amrrules config                                  # show all config
  amrrules config set fetch.workers 8              # fetch more files at once
  amrrules config set rules.blocked_ids ECO0042    # hide a rule
  amrrules config get source.repo                  # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd(a))
	cmd.AddCommand(newConfigGetCmd(a))

	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigGet(args[0])
		},
	}
}

func (a *app) runConfigShow() error {
	out, err := yaml.Marshal(a.v.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if f := a.v.ConfigFileUsed(); f != "" {
		fmt.Fprintf(a.stdout, "# %s\n", f)
	}
	fmt.Fprint(a.stdout, string(out))
	return nil
}

// listKeys hold comma-separated values.
var listKeys = map[string]bool{"rules.blocked_ids": true}

func (a *app) runConfigSet(key, value string) error {
	switch {
	case listKeys[key]:
		a.v.Set(key, splitList(value))
	case value == "true" || value == "yes" || value == "on":
		a.v.Set(key, true)
	case value == "false" || value == "no" || value == "off":
		a.v.Set(key, false)
	default:
		a.v.Set(key, value)
	}

	cfgFile := a.v.ConfigFileUsed()
	if cfgFile == "" {
		cfgFile = a.cfgFile
	}
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".amrrules.yaml")
	}

	if err := a.v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(a.stdout, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func (a *app) runConfigGet(key string) error {
	if !a.v.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	switch val := a.v.Get(key).(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(a.stdout, "%s: %v\n", k, val[k])
		}
	default:
		fmt.Fprintln(a.stdout, val)
	}
	return nil
}
