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

//go:generate mockgen -source=allocator.go -destination=mock_allocator.go -package=malloc

const (
	KB = 1 << 10
	MB = 1 << 20
	GB = 1 << 30
)

// Allocator hands out blocks of raw memory. The returned slice has len ==
// size. Memory is zeroed unless hints contain NoClear. The Deallocator must
// be called exactly once when the block is no longer referenced.
type Allocator interface {
	Allocate(size uint64, hints Hints) ([]byte, Deallocator, error)
}

type Deallocator interface {
	Deallocate(hints Hints)
}

type Hints uint64

const (
	NoClear Hints = 1 << iota
	DoNotReuse
)

// FuncDeallocator adapts a plain function to Deallocator.
type FuncDeallocator func(hints Hints)

var _ Deallocator = FuncDeallocator(nil)

func (f FuncDeallocator) Deallocate(hints Hints) {
	f(hints)
}

type chainDeallocator []Deallocator

var _ Deallocator = chainDeallocator{}

func (c chainDeallocator) Deallocate(hints Hints) {
	for _, dec := range c {
		dec.Deallocate(hints)
	}
}

// ChainDeallocator returns a Deallocator that runs all non-nil decs in
// order.
func ChainDeallocator(decs ...Deallocator) Deallocator {
	var ret chainDeallocator
	for _, dec := range decs {
		if dec == nil {
			continue
		}
		if chain, ok := dec.(chainDeallocator); ok {
			ret = append(ret, chain...)
			continue
		}
		ret = append(ret, dec)
	}
	if len(ret) == 1 {
		return ret[0]
	}
	return ret
}

type nopDeallocator struct{}

func (nopDeallocator) Deallocate(Hints) {}

var dumbDeallocator Deallocator = nopDeallocator{}
