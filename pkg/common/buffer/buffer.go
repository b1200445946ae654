// Copyright 2021 - 2023 Matrix Origin
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

package buffer

import (
	"math"
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/common/moerr"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

// noCopy makes go vet report copies of a Buffer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Buffer owns a fixed number of slots of T. A block is referenced by exactly
// one Buffer at a time: Swap and Take move it, nothing duplicates it, and
// Free releases it once.
//
// Slots of pointer-free types live in memory handed out by the allocator.
// Types the garbage collector has to scan, and zero-sized types, are kept
// on the Go heap instead.
type Buffer[T any] struct {
	_    noCopy
	data []T
	dec  malloc.Deallocator
}

// New returns a buffer of n zero valued slots. n == 0 gives an empty buffer
// whose Base is nil.
func New[T any](n int, allocator malloc.Allocator) (*Buffer[T], error) {
	if n < 0 {
		panic(moerr.NewInvalidInputNoCtx("negative buffer size %d", n))
	}
	b := new(Buffer[T])
	if n == 0 {
		return b, nil
	}

	if !rawStorable[T]() {
		b.data = make([]T, n)
		return b, nil
	}

	var v T
	elemSize := uint64(unsafe.Sizeof(v))
	if uint64(n) > math.MaxUint64/elemSize {
		return nil, moerr.NewOOMNoCtx()
	}
	size := elemSize * uint64(n)
	data, dec, err := allocator.Allocate(size, 0)
	if err != nil {
		logutil.Error("buffer allocate failed",
			zap.Int("slots", n),
			zap.Uint64("bytes", size),
			zap.Error(err),
		)
		return nil, err
	}
	b.data = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(data))), n)
	b.dec = dec
	return b, nil
}

// Len returns the number of slots.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Base returns every slot, len == cap == Len(). It is nil for an empty
// buffer. The slice is only valid while b owns the block.
func (b *Buffer[T]) Base() []T {
	return b.data
}

func (b *Buffer[T]) Get(i int) T {
	return b.data[i]
}

func (b *Buffer[T]) Set(i int, v T) {
	b.data[i] = v
}

// Swap exchanges the blocks owned by b and o. No slot is copied.
func (b *Buffer[T]) Swap(o *Buffer[T]) {
	b.data, o.data = o.data, b.data
	b.dec, o.dec = o.dec, b.dec
}

// Take moves the block into a new Buffer and leaves b empty.
func (b *Buffer[T]) Take() *Buffer[T] {
	ret := new(Buffer[T])
	ret.Swap(b)
	return ret
}

// Free releases the block. It is safe to call more than once.
func (b *Buffer[T]) Free() {
	dec := b.dec
	b.data = nil
	b.dec = nil
	if dec != nil {
		dec.Deallocate(0)
	}
}

type typeInfo struct {
	raw      bool
	pointers bool
}

var typeInfos sync.Map // reflect.Type -> typeInfo

func getTypeInfo[T any]() typeInfo {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := typeInfos.Load(typ); ok {
		return v.(typeInfo)
	}
	pointers := hasPointers(typ)
	info := typeInfo{
		raw:      typ.Size() > 0 && !pointers,
		pointers: pointers,
	}
	typeInfos.Store(typ, info)
	return info
}

func rawStorable[T any]() bool {
	return getTypeInfo[T]().raw
}

// HasPointers reports whether values of T hold references the garbage
// collector follows. Slots of such types should be cleared once unused.
func HasPointers[T any]() bool {
	return getTypeInfo[T]().pointers
}

func hasPointers(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return typ.Len() > 0 && hasPointers(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if hasPointers(typ.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
