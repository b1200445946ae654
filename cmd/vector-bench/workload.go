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
	"math/rand"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/common/moerr"
	"github.com/matrixorigin/simplevector/pkg/config"
	"github.com/matrixorigin/simplevector/pkg/container/vector"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

// checkInterval is how often a worker looks at its context.
const checkInterval = 1024

type workerResult struct {
	worker      int
	ops         int
	inserts     int
	erases      int
	clears      int
	maxCapacity int
	checksum    int64
	err         error
}

// runWorkload runs cfg.Workers independent workers on a pool of
// cfg.PoolSize goroutines. Each worker owns one vector allocated from
// allocator. The first worker error is returned along with all results.
func runWorkload(
	ctx context.Context,
	cfg config.WorkloadConfig,
	allocator malloc.Allocator,
) ([]workerResult, error) {
	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()
	return runOnPool(ctx, pool, cfg, allocator)
}

func runOnPool(
	ctx context.Context,
	pool *ants.Pool,
	cfg config.WorkloadConfig,
	allocator malloc.Allocator,
) ([]workerResult, error) {
	results := make([]workerResult, cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = workerResult{
						worker: i,
						err:    moerr.ConvertPanicError(ctx, r),
					}
					logutil.Error("worker panicked",
						zap.Int("worker", i),
						zap.Error(results[i].err),
					)
				}
			}()
			results[i] = runWorker(ctx, i, cfg, allocator)
		}); err != nil {
			wg.Done()
			results[i] = workerResult{worker: i, err: err}
		}
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return results, r.err
		}
	}
	return results, nil
}

func runWorker(
	ctx context.Context,
	worker int,
	cfg config.WorkloadConfig,
	allocator malloc.Allocator,
) (ret workerResult) {
	ret.worker = worker
	seed := cfg.Seed
	if seed == 0 {
		seed = int64(worker) + 1
	} else {
		seed += int64(worker)
	}
	r := rand.New(rand.NewSource(seed))

	vec := vector.New[int64](vector.WithAllocator(allocator))
	defer vec.Free()

	for ; ret.ops < cfg.Iterations; ret.ops++ {
		if ret.ops%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				ret.err = err
				return
			}
		}

		var err error
		size := vec.Size()
		switch p := r.Intn(100); {
		case p < cfg.InsertRatio:
			_, err = vec.Insert(r.Intn(size+1), r.Int63())
			ret.inserts++
		case p < cfg.InsertRatio+cfg.EraseRatio:
			if size > 0 {
				vec.Erase(r.Intn(size))
				ret.erases++
			}
		case p == 99:
			err = vec.Resize(r.Intn(2*size + 1))
		default:
			err = vec.PushBack(r.Int63())
		}
		if err != nil {
			logutil.Error("workload operation failed",
				zap.Int("worker", worker),
				zap.Int("op", ret.ops),
				zap.Error(err),
			)
			ret.err = err
			return
		}

		if vec.Size() > vec.Capacity() {
			ret.err = moerr.NewInternalErrorNoCtx("worker %d: size %d exceeds capacity %d",
				worker, vec.Size(), vec.Capacity())
			return
		}
		ret.maxCapacity = max(ret.maxCapacity, vec.Capacity())
		if vec.Size() >= cfg.MaxSize {
			vec.Clear()
			ret.clears++
		}
	}

	for v := range vec.Values() {
		ret.checksum += v
	}
	return
}
