// Command caers-report runs the CAERS pipeline once over a local export,
// prints the most reported products and writes the age group chart as PNG.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/giygas/caers-api/caersparser"
	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/chart"
	"github.com/giygas/caers-api/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	file      string
	url       string
	output    string
	threshold int
	sex       string
	ageGroup  string
	top       int
}

func main() {
	_ = godotenv.Load()
	logging.InitLogger("")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := reportOptions{}

	defaultFile := os.Getenv("CAERS_FILE")
	if defaultFile == "" {
		defaultFile = "CAERS_ProductBased.csv"
	}

	cmd := &cobra.Command{
		Use:   "caers-report",
		Short: "Summarize a CAERS product-based export",
		Long: `Loads a CAERS export, keeps suspect products with their concomitant
products attached, scores severity, buckets ages and charts the products
reported more often than the threshold.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", defaultFile, "CAERS export to load")
	flags.StringVar(&opts.url, "url", os.Getenv("CAERS_URL"), "download the export from this URL first")
	flags.StringVarP(&opts.output, "output", "o", "", "write the chart PNG to this path")
	flags.IntVarP(&opts.threshold, "threshold", "t", chart.DefaultThreshold, "chart products with more occurrences than this")
	flags.StringVar(&opts.sex, "sex", "", "only chart records of this sex")
	flags.StringVar(&opts.ageGroup, "age-group", "", "only chart records of this age group")
	flags.IntVarP(&opts.top, "top", "n", 10, "number of products to list")

	return cmd
}

func runReport(out io.Writer, opts reportOptions) error {
	chartOpts := chart.Options{Threshold: opts.threshold, Sex: opts.sex}
	if opts.ageGroup != "" {
		bracket, ok := entities.ParseAgeBracket(opts.ageGroup)
		if !ok {
			return fmt.Errorf("unknown age group %q", opts.ageGroup)
		}
		chartOpts.AgeGroup = bracket
	}

	dataset, err := caersparser.NewCAERSParser(opts.file, opts.url).ParseDataset()
	if err != nil {
		return err
	}

	stats := dataset.Stats
	fmt.Fprintf(out, "rows read: %d, kept: %d, suspect: %d, concomitant: %d\n",
		stats.RowsRead, stats.RowsKept, stats.SuspectRows, stats.ConcomitantRows)
	fmt.Fprintf(out, "dropped: %d without product, %d without outcome, %d exemptions\n\n",
		stats.MissingProduct, stats.MissingOutcome, stats.Exemptions)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tOCCURRENCES\tMEAN SEVERITY")
	ranked := caersparser.RankAggregates(dataset.Aggregates)
	for _, agg := range ranked[:max(0, min(opts.top, len(ranked)))] {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", agg.Product, agg.Count, agg.MeanSeverity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	data := chart.Build(dataset.Records, chartOpts)
	fmt.Fprintf(out, "\n%d products above %d occurrences\n", len(data.Products), opts.threshold)

	if opts.output == "" {
		return nil
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.output, err)
	}

	if err := writeChart(f, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}

	fmt.Fprintf(out, "chart written to %s\n", opts.output)
	return nil
}

// writeChart renders the chart into w and closes it, reporting the close error.
func writeChart(w io.WriteCloser, data chart.Data) error {
	if err := chart.RenderPNG(w, data, chart.DefaultRenderOptions()); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return w.Close()
}
