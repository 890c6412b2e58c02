package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/econ-calendar/internal/registry"
	"github.com/pfrederiksen/econ-calendar/internal/storage"
)

func newCountriesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List countries and their site ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries := registry.Countries()
			return writeListing(cmd.OutOrStdout(), format, countries, func(t table.Writer) {
				t.AppendHeader(table.Row{"ID", "Country", "Currency"})
				for _, c := range countries {
					t.AppendRow(table.Row{c.ID, c.Name, c.Currency})
				}
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or yaml")
	return cmd
}

func newTimezonesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "timezones",
		Short: "List timezones and their site ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			timezones := registry.Timezones()
			return writeListing(cmd.OutOrStdout(), format, timezones, func(t table.Writer) {
				t.AppendHeader(table.Row{"ID", "Timezone", "Offset"})
				for _, tz := range timezones {
					t.AppendRow(table.Row{tz.ID, tz.Name, tz.Offset.String()})
				}
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or yaml")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List event categories and their site ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := registry.Categories()
			return writeListing(cmd.OutOrStdout(), format, categories, func(t table.Writer) {
				t.AppendHeader(table.Row{"ID", "Category"})
				for _, cat := range categories {
					t.AppendRow(table.Row{cat.ID, cat.Name})
				}
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or yaml")
	return cmd
}

func newShowCmd(root *rootFlags) *cobra.Command {
	var (
		scope   string
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "show <event-key>",
		Short: "Show an event stored in the last snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			evt, err := store.GetEvent(args[0], scope)
			if err != nil {
				return err
			}
			return writeJSONValue(cmd.OutOrStdout(), evt)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", storage.DefaultScope, "Snapshot scope, e.g. all or 5-72")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory for snapshots")
	return cmd
}

// writeListing encodes v as JSON or YAML, or fills a table for text output.
func writeListing(w io.Writer, format string, v any, rows func(table.Writer)) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		return writeJSONValue(w, v)
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(v)
	case FormatText:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		rows(t)
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	default:
		return fmt.Errorf("format %s is not supported for listings", f)
	}
}

func writeJSONValue(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
