// Package loadgen sends synthetic prediction requests to a running server.
package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/deliveryeta/core/model"
	"github.com/kilianp07/deliveryeta/infra/logger"
)

// Config controls a load run.
type Config struct {
	Target      string
	Count       int
	Concurrency int
	Timeout     time.Duration
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.Target == "" {
		return errors.New("target is required")
	}
	if !strings.HasPrefix(c.Target, "http://") && !strings.HasPrefix(c.Target, "https://") {
		return fmt.Errorf("target %q must be an http(s) URL", c.Target)
	}
	if c.Count <= 0 {
		return errors.New("count must be positive")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	return nil
}

// Report summarises a run. Latencies are in milliseconds.
type Report struct {
	Sent          int     `json:"sent"`
	OK            int     `json:"ok"`
	ClientErrors  int     `json:"client_errors"`
	ServerErrors  int     `json:"server_errors"`
	Failed        int     `json:"failed"`
	MeanLatencyMS float64 `json:"mean_latency_ms"`
	P95LatencyMS  float64 `json:"p95_latency_ms"`
	MaxLatencyMS  float64 `json:"max_latency_ms"`
}

// RequestSource produces the next request body.
type RequestSource func() model.PredictionRequest

// Run posts cfg.Count requests to cfg.Target + "/predict". Transport failures
// are counted rather than aborting the run; only ctx cancellation stops it.
func Run(ctx context.Context, client *http.Client, cfg Config, next RequestSource, log logger.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	workers := cfg.Concurrency
	if workers == 0 {
		workers = 4
	}
	url := strings.TrimRight(cfg.Target, "/") + "/predict"

	bodies := make([][]byte, cfg.Count)
	for i := range bodies {
		b, err := json.Marshal(next())
		if err != nil {
			return Report{}, err
		}
		bodies[i] = b
	}

	var (
		mu        sync.Mutex
		rep       Report
		latencies = make([]float64, 0, cfg.Count)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, body := range bodies {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			start := time.Now()
			code, err := post(gctx, client, url, body)
			elapsed := float64(time.Since(start).Microseconds()) / 1000
			mu.Lock()
			defer mu.Unlock()
			rep.Sent++
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				rep.Failed++
				log.Debugf("request failed: %v", err)
				return nil
			case code >= 500:
				rep.ServerErrors++
			case code >= 400:
				rep.ClientErrors++
			default:
				rep.OK++
			}
			latencies = append(latencies, elapsed)
			return nil
		})
	}
	err := g.Wait()
	summarise(&rep, latencies)
	log.Infof("sent %d requests: %d ok, %d client errors, %d server errors, %d failed",
		rep.Sent, rep.OK, rep.ClientErrors, rep.ServerErrors, rep.Failed)
	return rep, err
}

func post(ctx context.Context, client *http.Client, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func summarise(rep *Report, latencies []float64) {
	if len(latencies) == 0 {
		return
	}
	sort.Float64s(latencies)
	rep.MeanLatencyMS = stat.Mean(latencies, nil)
	rep.P95LatencyMS = stat.Quantile(0.95, stat.Empirical, latencies, nil)
	rep.MaxLatencyMS = latencies[len(latencies)-1]
}
