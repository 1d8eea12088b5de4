package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/config"
	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/excel"
	"github.com/sape94/NIQ-sp-proj/internal/service/pipeline"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/service/selection"
	"github.com/sape94/NIQ-sp-proj/internal/service/structure"
	"github.com/sape94/NIQ-sp-proj/internal/service/tabular"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

var (
	outPath  string
	sheet    string
	grouping string

	confidence    int
	standardError float64
	portion       float64

	population int

	design model.DesignParams

	sampleSize int

	tableDesign  tabular.Design
	quotaColumns []string
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the required universe columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, c := range model.RequiredColumns {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Player_ID\tPlayer\tSubplayer_ID\tSubplayer")
		for _, p := range model.PlayersHelp() {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", p.PlayerID, p.Player, p.SubplayerID, p.Subplayer)
		}
		return w.Flush()
	},
}

var structureCmd = &cobra.Command{
	Use:   "structure [universe file]",
	Short: "Summarize a universe by retailer, state, city and chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := loadStores(args[0])
		if err != nil {
			return err
		}
		summarizer := structure.NewSummarizer(logger)

		if grouping != "" {
			g, err := model.ParseGrouping(grouping)
			if err != nil {
				return err
			}
			rows, err := summarizer.Summarize(stores, g)
			if err != nil {
				return err
			}
			return writeOutput(cmd, excel.StratumSheet(g.Title()+" Structure", g, rows))
		}

		result, err := summarizer.Universe(stores)
		if err != nil {
			return err
		}
		sheets := make([]*table.Sheet, 0, len(model.Groupings))
		for _, g := range model.Groupings {
			sheets = append(sheets, excel.StratumSheet(g.Title()+" Structure", g, result.View(g)))
		}
		return writeOutput(cmd, sheets...)
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size [universe file]",
	Short: "Compute required sample sizes",
	Long: `Without a file, prints the required sample size for --population.
With a universe file, prints regular and weighted sample sizes for every
stratum of --grouping. With --columns, the file is read as a plain table and
stratified by those columns instead. With --quota, every row is a quota cell
and sizes are added after each numeric column outside the quota columns.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := samplingParams(cmd)
		if len(args) == 0 {
			n, err := samplesize.RequiredSampleSize(population, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		}

		switch {
		case len(quotaColumns) > 0:
			raw, err := loadSheet(args[0])
			if err != nil {
				return err
			}
			out, err := tabular.QuotaSizes(raw, quotaColumns, params)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out)
		case len(tableDesign.Columns) > 0:
			raw, err := loadSheet(args[0])
			if err != nil {
				return err
			}
			sizes, universeSize, err := tabular.StructureSizes(raw, tableDesign, params)
			if err != nil {
				return err
			}
			logger.Info("table sample size", zap.Int("rows", raw.Len()), zap.Int("sampleSize", universeSize))
			return writeOutput(cmd, excel.TableSizeSheet("Sample Sizes", tableDesign, sizes))
		}

		stores, err := loadStores(args[0])
		if err != nil {
			return err
		}
		g := model.GroupingCity
		if grouping != "" {
			if g, err = model.ParseGrouping(grouping); err != nil {
				return err
			}
		}
		rows, err := structure.NewSummarizer(logger).Summarize(stores, g)
		if err != nil {
			return err
		}
		sizes, universeSize, err := samplesize.StructureSizes(rows, params)
		if err != nil {
			return err
		}
		logger.Info("universe sample size", zap.Int("stores", len(stores)), zap.Int("sampleSize", universeSize))
		return writeOutput(cmd, excel.StructureSizeSheet("Sample Sizes", g, sizes))
	},
}

var designCmd = &cobra.Command{
	Use:   "design [universe file]",
	Short: "Design a structural sample: principal cities, targets and selected stores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := loadStores(args[0])
		if err != nil {
			return err
		}
		result, err := pipeline.New(logger).Run(stores, design)
		if err != nil {
			return err
		}

		r := result.Report
		fmt.Fprintf(cmd.ErrOrStderr(), "selected %d stores, ACV %.2f (%.2f%% of the reduced universe)\n",
			r.SelectedStores, r.SelectedACV, r.ACVCoverage)

		sheets := excel.DesignSheets(result)
		if outPath == "" {
			return writeOutput(cmd, sheets[len(sheets)-2])
		}
		return writeOutput(cmd, sheets...)
	},
}

var randomCmd = &cobra.Command{
	Use:   "random [universe file]",
	Short: "Draw a simple or stratified random sample",
	Long: `Draws --n stores (or the required sample size when --n is not given)
uniformly without replacement. With --grouping the sample is allocated across
the strata of that grouping first. With --columns the file is read as a plain
table and rows are allocated across the strata of those columns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(tableDesign.Columns) > 0 {
			return randomRows(cmd, args[0])
		}
		stores, err := loadStores(args[0])
		if err != nil {
			return err
		}

		n := sampleSize
		if !cmd.Flags().Changed("n") {
			if n, err = samplesize.RequiredSampleSize(len(stores), samplingParams(cmd)); err != nil {
				return err
			}
		}

		sampler := newSampler(n)

		if grouping == "" {
			picked, err := sampler.Simple(stores, n)
			if err != nil {
				return err
			}
			return writeOutput(cmd, excel.StoreSheet("Sample", picked))
		}

		res, err := sampler.Stratified(stores, model.Grouping(grouping), n)
		if err != nil {
			return err
		}
		if outPath == "" {
			return writeOutput(cmd, excel.StoreSheet("Sample", res.Stores))
		}
		return writeOutput(cmd, excel.StoreSheet("Sample", res.Stores), excel.AllocationSheet("Allocation", res.Allocations))
	},
}

// randomRows draws a column-stratified sample from a plain table.
func randomRows(cmd *cobra.Command, path string) error {
	raw, err := loadSheet(path)
	if err != nil {
		return err
	}
	n := -1
	if cmd.Flags().Changed("n") {
		n = sampleSize
	}
	res, err := newSampler(n).StratifiedRows(raw, tableDesign, n, samplingParams(cmd))
	if err != nil {
		return err
	}
	if outPath == "" {
		return writeOutput(cmd, res.Sheet)
	}
	return writeOutput(cmd, res.Sheet, excel.AllocationSheet("Allocation", res.Allocations))
}

// newSampler seeds a sampler from config, or from the clock when the seed is 0.
func newSampler(n int) *selection.Sampler {
	s := cfg.Sampling.Seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	logger.Debug("random draw", zap.Int64("seed", s), zap.Int("n", n))
	return selection.NewSampler(rand.New(rand.NewSource(s)), logger)
}

func init() {
	for _, cmd := range []*cobra.Command{structureCmd, sizeCmd, designCmd, randomCmd} {
		cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (.xlsx or .csv), relative paths under <data_dir>/exports; CSV to stdout when empty")
		cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from an .xlsx universe (default: first)")
	}
	for _, cmd := range []*cobra.Command{structureCmd, sizeCmd, randomCmd} {
		cmd.Flags().StringVarP(&grouping, "grouping", "g", "", "Grouping: retailer, state, city or detailed")
	}
	for _, cmd := range []*cobra.Command{sizeCmd, randomCmd} {
		cmd.Flags().IntVar(&confidence, "confidence", 0, "Confidence level in percent (default from config)")
		cmd.Flags().Float64Var(&standardError, "error", 0, "Margin of error as a fraction (default from config)")
		cmd.Flags().Float64Var(&portion, "portion", 0, "Sample portion p as a fraction (default from config)")
	}
	for _, cmd := range []*cobra.Command{sizeCmd, randomCmd} {
		cmd.Flags().StringSliceVar(&tableDesign.Columns, "columns", nil, "Stratify a plain table by these columns instead of a universe grouping")
		cmd.Flags().StringVar(&tableDesign.IDColumn, "id", "", "Identifier column ordering rows (with --columns)")
		cmd.Flags().StringVar(&tableDesign.FeatureColumn, "feature", "", "Keep only strata whose value in this column equals --value")
		cmd.Flags().StringVar(&tableDesign.FeatureValue, "value", "", "Feature value to keep (with --feature)")
	}
	sizeCmd.Flags().IntVar(&population, "population", 0, "Population size when no file is given")
	sizeCmd.Flags().StringSliceVar(&quotaColumns, "quota", nil, "Quota columns of a pivot table; sizes are added after every other numeric column")
	randomCmd.Flags().IntVar(&sampleSize, "n", 0, "Sample size (default: required sample size)")

	f := designCmd.Flags()
	f.StringVar((*string)(&design.Reduction), "reduction", string(model.MetricACV), "Metric used to pick principal cities: ACV or Stores")
	f.Float64Var(&design.CitiesCoverage, "cities-coverage", 0.8, "Cumulative coverage of principal cities, as a fraction")
	f.StringVar((*string)(&design.Preservation), "structure", string(model.PreserveCities), "Structure to preserve: cities or universe")
	f.Float64Var(&design.TargetACV, "target-acv", 0.5, "ACV target, as a fraction")
	f.Float64Var(&design.TargetStores, "target-stores", 0.5, "Store target, as a fraction")
	f.StringVar((*string)(&design.Selection), "selection", string(model.SelectStructurePreserving), "Store selection: structure or acv")
}

// samplingParams overlays sampling flags the user set on the configured defaults.
func samplingParams(cmd *cobra.Command) model.SamplingParams {
	params := cfg.Sampling.Params()
	if cmd.Flags().Changed("confidence") {
		params.ConfidenceLevel = confidence
	}
	if cmd.Flags().Changed("error") {
		params.StandardError = standardError
	}
	if cmd.Flags().Changed("portion") {
		params.SamplePortion = portion
	}
	return params
}

func loadStores(path string) ([]model.Store, error) {
	raw, err := loadSheet(path)
	if err != nil {
		return nil, err
	}
	stores, err := excel.ParseStores(raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("universe loaded", zap.String("path", path), zap.Int("stores", len(stores)))
	return stores, nil
}

// loadSheet reads a .csv or .xlsx as a plain table, honouring --sheet.
func loadSheet(path string) (*table.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw *table.Sheet
	if sheet != "" && !strings.EqualFold(filepath.Ext(path), ".csv") {
		raw, err = excel.ReadWorkbookSheet(f, sheet)
	} else {
		raw, err = excel.ReadSheet(f, path)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// writeOutput writes sheets to --out, or the first sheet as CSV to stdout.
func writeOutput(cmd *cobra.Command, sheets ...*table.Sheet) error {
	if outPath == "" {
		return excel.WriteCSV(cmd.OutOrStdout(), sheets[0])
	}

	path, err := config.ResolveOutputPath(cfg, outPath)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if len(sheets) > 1 {
			logger.Warn("csv output keeps only the first table", zap.String("sheet", sheets[0].Name))
		}
		err = excel.WriteCSV(f, sheets[0])
	} else {
		err = excel.WriteWorkbook(f, sheets...)
	}
	if err != nil {
		return err
	}
	logger.Info("output written", zap.String("path", path), zap.Int("sheets", len(sheets)))
	return f.Close()
}
