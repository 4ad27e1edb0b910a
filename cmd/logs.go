package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/deliveryeta/core/factory"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/pkg/export"
)

var (
	logsFormat  string
	logsStart   string
	logsEnd     string
	logsVersion string
	logsLimit   int
	copyType    string
	copyPath    string
	copyDSN     string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect the prediction log",
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write logged predictions as CSV or JSON to stdout",
	RunE:  runLogsExport,
}

var logsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise logged predicted delivery times",
	RunE:  runLogsStats,
}

var logsCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy logged predictions into another store",
	RunE:  runLogsCopy,
}

func init() {
	for _, c := range []*cobra.Command{logsExportCmd, logsStatsCmd, logsCopyCmd} {
		c.Flags().StringVar(&logsStart, "start", "", "RFC3339 lower bound on created_at")
		c.Flags().StringVar(&logsEnd, "end", "", "RFC3339 upper bound on created_at")
		c.Flags().StringVar(&logsVersion, "model-version", "", "only entries of this model version")
		c.Flags().IntVar(&logsLimit, "limit", 0, "maximum entries, 0 for all")
		logsCmd.AddCommand(c)
	}
	logsExportCmd.Flags().StringVarP(&logsFormat, "format", "f", "json", "csv or json")
	logsCopyCmd.Flags().StringVar(&copyType, "to", "", "destination store type")
	logsCopyCmd.Flags().StringVar(&copyPath, "to-path", "", "destination path for file stores")
	logsCopyCmd.Flags().StringVar(&copyDSN, "to-dsn", "", "destination DSN for database stores")
	_ = logsCopyCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(logsCmd)
}

func logsQuery() (predictionlog.Query, error) {
	q := predictionlog.Query{ModelVersion: logsVersion, Limit: logsLimit}
	if logsStart != "" {
		t, err := time.Parse(time.RFC3339, logsStart)
		if err != nil {
			return q, fmt.Errorf("invalid --start: %w", err)
		}
		q.Start = t
	}
	if logsEnd != "" {
		t, err := time.Parse(time.RFC3339, logsEnd)
		if err != nil {
			return q, fmt.Errorf("invalid --end: %w", err)
		}
		q.End = t
	}
	return q, nil
}

func queryLogs(cmd *cobra.Command) ([]predictionlog.Entry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	q, err := logsQuery()
	if err != nil {
		return nil, err
	}
	store, err := predictionlog.NewStore(cfg.PredictionLog.Store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Query(cmd.Context(), q)
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	if logsFormat != "csv" && logsFormat != "json" {
		return fmt.Errorf("unsupported format %q", logsFormat)
	}
	entries, err := queryLogs(cmd)
	if err != nil {
		return err
	}
	if logsFormat == "csv" {
		return export.WriteCSV(cmd.OutOrStdout(), entries)
	}
	return export.WriteJSON(cmd.OutOrStdout(), entries)
}

func runLogsStats(cmd *cobra.Command, args []string) error {
	entries, err := queryLogs(cmd)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(predictionlog.Summarize(entries))
}

func runLogsCopy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	q, err := logsQuery()
	if err != nil {
		return err
	}
	conf := map[string]any{}
	if copyPath != "" {
		conf["path"] = copyPath
	}
	if copyDSN != "" {
		conf["dsn"] = copyDSN
	}
	src, err := predictionlog.NewStore(cfg.PredictionLog.Store)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	dst, err := predictionlog.NewStore(factory.ModuleConfig{Type: copyType, Conf: conf})
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	defer func() { _ = dst.Close() }()

	n, err := predictionlog.Copy(cmd.Context(), src, dst, q)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "copied %d entries\n", n)
	return err
}
