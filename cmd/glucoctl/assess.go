package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/ui"
	"github.com/Skufu/glucocheck/internal/vitals"
)

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the health parameters and their accepted ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Label", "Range", "Unit", "Step"})
			for _, f := range vitals.Fields() {
				t.AppendRow(table.Row{f.Name, f.Label,
					vitals.FormatNumber(f.Range.Min) + "-" + vitals.FormatNumber(f.Range.Max), f.Unit, f.Step})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}

func newAnnotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [field] [value]",
		Short: "Classify a single value the way the form does",
		Long: `Classify a single value the way the form does.

Example: glucoctl annotate glucose 150`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), ui.AnnotationLine(vitals.Annotate(args[0], args[1])))
			return err
		},
	}
}

func newAssessCmd(a *app) *cobra.Command {
	var sample bool
	values := make(map[string]*string)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Submit the eight health parameters for a risk prediction",
		Long: `Submit the eight health parameters for a risk prediction and record the
result in the profile's history.

Example: glucoctl assess --sample --glucose 150`,
		Args:    cobra.NoArgs,
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make(map[string]string, len(values))
			if sample {
				raw = vitals.SampleInputs().Raw()
			}
			for name, v := range values {
				if cmd.Flags().Changed(name) {
					raw[name] = *v
				}
			}
			return a.runAssess(cmd, raw)
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Start from the sample values")
	for _, f := range vitals.Fields() {
		values[f.Name] = cmd.Flags().String(f.Name, "", fmt.Sprintf("%s (%s-%s)", f.Label,
			vitals.FormatNumber(f.Range.Min), vitals.FormatNumber(f.Range.Max)))
	}
	return cmd
}

func (a *app) runAssess(cmd *cobra.Command, raw map[string]string) error {
	out := cmd.OutOrStdout()
	inputs, err := vitals.ValidateAll(raw)
	var verr *vitals.ValidationError
	if errors.As(err, &verr) {
		for _, is := range verr.Issues {
			fmt.Fprintf(out, "  %s\n", is.Message)
		}
		return fmt.Errorf("%d field(s) need attention", len(verr.Issues))
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	resp, err := a.client.Predict(ctx, inputs)
	if err != nil {
		return err
	}
	rec, err := assessment.ToRecord(inputs, resp, a.now())
	if err != nil {
		return err
	}
	history, err := a.store.Append(ctx, a.profile, rec)
	if err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}

	if err := ui.WriteResult(out, ui.RenderRecord(rec)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nSaved as %s (%d in history).\n", rec.ID, len(history))
	return err
}

func newBMICmd() *cobra.Command {
	var height, weight float64

	cmd := &cobra.Command{
		Use:   "bmi",
		Short: "Calculate BMI from height and weight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := vitals.CalculateBMI(height, weight)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "BMI %.1f: %s\n", res.BMI, res.Category)
			return err
		},
	}

	cmd.Flags().Float64Var(&height, "height", 0, "Height in centimetres")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight in kilograms")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [glucose|bmi] [value]",
		Short: "Quick check of a glucose or BMI reading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			res, err := vitals.QuickCheck(args[0], v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n%s\n", res.Display, res.Result, res.Recommendation)
			return err
		},
	}
}
