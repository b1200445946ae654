// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/config"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

var (
	configFile = flag.String("cfg", "./vector-bench.toml", "toml configuration used to run vector-bench")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfigFromFile(*configFile)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config from %s, error: %s", *configFile, err.Error()))
	}
	logutil.SetupLogger(&cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, prometheus.NewRegistry()); err != nil {
		logutil.Error("vector-bench failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) error {
	allocator, err := malloc.NewAllocator(cfg.Malloc, reg)
	if err != nil {
		return err
	}
	prev := malloc.SetDefault(allocator)
	defer malloc.SetDefault(prev)

	start := time.Now()
	results, err := runWorkload(ctx, cfg.Workload, allocator)
	if err != nil {
		return err
	}
	report(results, time.Since(start))
	return reportMetrics(reg)
}

func report(results []workerResult, elapsed time.Duration) {
	var ops int
	for _, r := range results {
		ops += r.ops
		logutil.Info("worker done",
			zap.Int("worker", r.worker),
			zap.Int("ops", r.ops),
			zap.Int("inserts", r.inserts),
			zap.Int("erases", r.erases),
			zap.Int("clears", r.clears),
			zap.Int("max-capacity", r.maxCapacity),
			zap.Int64("checksum", r.checksum),
		)
	}
	logutil.Info("workload done",
		zap.Int("workers", len(results)),
		zap.Int("ops", ops),
		zap.Duration("elapsed", elapsed),
		zap.Float64("ops/s", float64(ops)/max(elapsed.Seconds(), 1e-9)),
	)
}

func reportMetrics(reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			logutil.Info("allocator metric",
				zap.String("name", family.GetName()),
				zap.Float64("value", value),
			)
		}
	}
	return nil
}
