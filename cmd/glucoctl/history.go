package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/backend"
	"github.com/Skufu/glucocheck/internal/report"
	"github.com/Skufu/glucocheck/internal/ui"
)

func newHistoryCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past assessments, most recent first",
		Long: `Show past assessments, most recent first.

With --remote the list kept by the prediction backend is shown instead of
the local profile.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := a.history(cmd, remote)
			if err != nil {
				return err
			}
			return ui.WriteHistory(cmd.OutOrStdout(), ui.RenderHistory(history, nil))
		},
	}
	cmd.PersistentFlags().BoolVar(&remote, "remote", false, "Use the backend's history")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every stored assessment",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				var err error
				if remote {
					err = a.client.ClearHistory(cmd.Context())
				} else {
					err = a.store.Clear(cmd.Context(), a.profile)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
				return err
			},
		},
		newHistoryExportCmd(a, &remote),
	)
	return cmd
}

func newHistoryExportCmd(a *app, remote *bool) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history as CSV or XLSX",
		Long: `Export the history as CSV or XLSX.

The file name defaults to diabetes_assessment_history_<date>.<format>; use
--output - to write CSV to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("format must be csv or xlsx, got %q", format)
			}
			history, err := a.history(cmd, *remote)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			name := report.CSVFilename(a.now())
			if format == "xlsx" {
				name = report.XLSXFilename(a.now())
				err = report.WriteXLSX(&buf, history, nil)
			} else {
				err = report.WriteCSV(&buf, history, nil)
			}
			if err != nil {
				return err
			}
			if output == "" {
				output = name
			}
			return writeOutput(cmd, output, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv|xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	return cmd
}

func (a *app) history(cmd *cobra.Command, remote bool) ([]assessment.Record, error) {
	if remote {
		return a.client.History(cmd.Context())
	}
	return a.store.List(cmd.Context(), a.profile)
}

func newReportCmd(a *app) *cobra.Command {
	var format, output string
	var remote bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a health report from the latest assessment",
		Long: `Build a health report from the latest assessment.

Formats: text (default), markdown, html (with trend chart), chart, json.
With --remote the backend builds the report (json or text only).`,
		Args:    cobra.NoArgs,
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body []byte
			var err error
			if remote {
				body, err = a.remoteReport(cmd, format)
			} else {
				body, err = a.localReport(cmd, format)
			}
			if err != nil {
				return err
			}
			if output == "" {
				output = "-"
			}
			return writeOutput(cmd, output, body)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Report format: text|markdown|html|chart|json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default stdout)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the backend for its report")
	return cmd
}

func (a *app) localReport(cmd *cobra.Command, format string) ([]byte, error) {
	history, err := a.store.List(cmd.Context(), a.profile)
	if err != nil {
		return nil, err
	}
	now := a.now()
	switch format {
	case "text":
		return []byte(report.Text(history, now) + "\n"), nil
	case "markdown", "md":
		return []byte(report.Markdown(history, now)), nil
	case "html":
		page, err := report.HTML(history, now)
		return []byte(page), err
	case "chart":
		var buf bytes.Buffer
		err := report.RenderTrendChart(&buf, history)
		return buf.Bytes(), err
	case "json":
		if len(history) == 0 {
			return nil, fmt.Errorf("%s", report.EmptyHistoryText)
		}
		return json.MarshalIndent(report.Generate(history[0]), "", "  ")
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

func (a *app) remoteReport(cmd *cobra.Command, format string) ([]byte, error) {
	switch format {
	case "json":
		raw, err := a.client.GenerateReport(cmd.Context())
		if err != nil {
			return nil, err
		}
		return indentJSON(raw)
	case "text":
		raw, err := a.client.ExportReport(cmd.Context())
		if err != nil {
			return nil, err
		}
		text := gjson.GetBytes(raw, "report")
		if text.Type != gjson.String {
			return nil, fmt.Errorf("backend export carries no report text")
		}
		return []byte(text.String() + "\n"), nil
	default:
		return nil, fmt.Errorf("remote reports are json or text, got %q", format)
	}
}

func newThemeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "theme",
		Short:             "Show the saved color theme",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := ui.LoadTheme(cmd.Context(), a.store, a.profile)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), theme)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			theme, err := ui.LoadTheme(ctx, a.store, a.profile)
			if err != nil {
				return err
			}
			next, err := ui.DispatchAndPersist(ctx, a.store, a.profile, ui.NewState(theme), ui.Action{Type: ui.ActionToggleTheme})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), next.Theme)
			return err
		},
	})
	return cmd
}

func newDatasetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dataset [name]",
		Short: "Fetch dataset statistics from the backend",
		Long: fmt.Sprintf(`Fetch dataset statistics from the backend.

Without a name the overview (%v) is fetched concurrently.
Names: %v`, backend.OverviewDatasets, backend.DatasetNames()),
		Args:    cobra.MaximumNArgs(1),
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				raw, err := a.client.Dataset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				body, err := indentJSON(raw)
				if err != nil {
					return err
				}
				return writeOutput(cmd, "-", body)
			}

			overview, err := a.client.Overview(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(overview))
			for name := range overview {
				names = append(names, name)
			}
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				body, err := indentJSON(overview[name])
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(out, "== %s ==\n", name)
				if _, err := out.Write(body); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func indentJSON(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writeOutput writes body to path, or to the command's stdout for "-".
func writeOutput(cmd *cobra.Command, path string, body []byte) error {
	if path == "-" {
		_, err := io.Copy(cmd.OutOrStdout(), bytes.NewReader(body))
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}
