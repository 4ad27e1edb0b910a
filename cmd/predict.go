package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/deliveryeta/api/prediction"
	"github.com/kilianp07/deliveryeta/app"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/core/service"
	"github.com/kilianp07/deliveryeta/infra/logger"
)

var (
	predictInput string
	predictNoLog bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the delivery time of one request read from a JSON file",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictInput, "input", "i", "-", "request JSON or YAML file, - for JSON on stdin")
	predictCmd.Flags().BoolVar(&predictNoLog, "no-log", false, "skip writing the prediction log")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if predictInput != "-" {
		f, err := os.Open(predictInput)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(predictInput)); ext == ".yaml" || ext == ".yml" {
		if body, err = yamlToJSON(body); err != nil {
			return err
		}
	}
	req, err := prediction.Decode(body)
	if err != nil {
		return err
	}

	log := logger.New("predict")
	loaded, err := app.LoadArtifacts(ctx, cfg.Artifacts, log)
	if err != nil {
		return err
	}
	defer func() { _ = loaded.Close() }()

	var store predictionlog.Store = predictionlog.NewMemoryStore()
	if !predictNoLog {
		if store, err = predictionlog.NewStore(cfg.PredictionLog.Store); err != nil {
			return err
		}
	}
	defer func() { _ = store.Close() }()

	svc, err := service.New(loaded.Artifacts, store, service.WithLogger(log))
	if err != nil {
		return err
	}
	res, err := svc.PredictAndLog(ctx, req)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// yamlToJSON lets YAML requests go through the same strict JSON validation.
func yamlToJSON(b []byte) ([]byte, error) {
	var v map[string]any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return json.Marshal(v)
}
