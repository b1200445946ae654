// Copyright 2024 Matrix Origin
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

package malloc

import (
	"sync/atomic"

	"github.com/matrixorigin/simplevector/pkg/common/moerr"
)

// LimitAllocator fails with ErrOOM once the bytes in use would exceed limit.
type LimitAllocator struct {
	upstream Allocator
	limit    uint64
	inuse    atomic.Uint64
	peak     *PeakInuseTracker
}

var _ Allocator = new(LimitAllocator)

func NewLimitAllocator(upstream Allocator, limit uint64) *LimitAllocator {
	return &LimitAllocator{
		upstream: upstream,
		limit:    limit,
		peak:     NewPeakInuseTracker(),
	}
}

func (l *LimitAllocator) Allocate(size uint64, hints Hints) ([]byte, Deallocator, error) {
	for {
		cur := l.inuse.Load()
		if cur+size > l.limit {
			return nil, nil, moerr.NewOOMNoCtx()
		}
		if l.inuse.CompareAndSwap(cur, cur+size) {
			l.peak.Update(cur + size)
			break
		}
	}

	bs, dec, err := l.upstream.Allocate(size, hints)
	if err != nil {
		l.inuse.Add(^(size - 1))
		return nil, nil, err
	}
	return bs, ChainDeallocator(
		dec,
		FuncDeallocator(func(_ Hints) {
			l.inuse.Add(^(size - 1))
		}),
	), nil
}

func (l *LimitAllocator) Inuse() uint64 {
	return l.inuse.Load()
}

func (l *LimitAllocator) Peak() uint64 {
	return l.peak.Peak().Value
}
