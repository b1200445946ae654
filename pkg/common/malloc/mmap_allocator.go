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

//go:build linux || darwin

package malloc

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/matrixorigin/simplevector/pkg/common/moerr"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

// MmapAllocator maps anonymous private pages for every block and unmaps
// them on release. Fresh mappings are always zero filled.
type MmapAllocator struct{}

var _ Allocator = new(MmapAllocator)

func NewMmapAllocator() *MmapAllocator {
	return new(MmapAllocator)
}

func (m *MmapAllocator) Allocate(size uint64, hints Hints) ([]byte, Deallocator, error) {
	if size == 0 {
		return nil, dumbDeallocator, nil
	}
	data, err := unix.Mmap(
		-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		logutil.Error("mmap failed",
			zap.Uint64("size", size),
			zap.Error(err),
		)
		return nil, nil, moerr.NewOOMNoCtx()
	}
	return data, FuncDeallocator(func(_ Hints) {
		if err := unix.Munmap(data); err != nil {
			panic(err)
		}
	}), nil
}
