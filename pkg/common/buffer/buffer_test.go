// Copyright 2023 Matrix Origin
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
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/common/moerr"
)

type point struct {
	x, y int32
	tag  [4]byte
}

type named struct {
	id   int64
	name string
}

func TestNew(t *testing.T) {
	for _, allocator := range []malloc.Allocator{
		malloc.NewGoAllocator(),
		malloc.NewClassAllocator(malloc.MB),
		malloc.NewMmapAllocator(),
	} {
		b, err := New[int64](16, allocator)
		require.NoError(t, err)
		require.Equal(t, 16, b.Len())
		require.Equal(t, 16, len(b.Base()))
		require.Equal(t, 16, cap(b.Base()))
		for i := 0; i < b.Len(); i++ {
			require.Equal(t, int64(0), b.Get(i))
			b.Set(i, int64(i*i))
		}
		require.Equal(t, int64(49), b.Base()[7])
		b.Free()
		require.Equal(t, 0, b.Len())
		require.Nil(t, b.Base())
	}
}

func TestNewEmpty(t *testing.T) {
	b, err := New[point](0, malloc.NewGoAllocator())
	require.NoError(t, err)
	require.Equal(t, 0, b.Len())
	require.Nil(t, b.Base())
	b.Free()

	require.Panics(t, func() {
		_, _ = New[int](-1, malloc.NewGoAllocator())
	})
}

func TestNewStruct(t *testing.T) {
	b, err := New[point](3, malloc.NewClassAllocator(malloc.MB))
	require.NoError(t, err)
	b.Set(2, point{x: 1, y: 2, tag: [4]byte{'a'}})
	require.Equal(t, point{}, b.Get(0))
	require.Equal(t, point{x: 1, y: 2, tag: [4]byte{'a'}}, b.Get(2))
	b.Free()
}

func TestNewPointerTypes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// types the collector scans never reach the allocator
	allocator := malloc.NewMockAllocator(ctrl)

	b, err := New[named](4, allocator)
	require.NoError(t, err)
	b.Set(1, named{id: 1, name: "one"})
	require.Equal(t, "one", b.Get(1).name)
	b.Free()

	s, err := New[string](2, allocator)
	require.NoError(t, err)
	require.Equal(t, "", s.Get(1))
	s.Free()

	e, err := New[struct{}](8, allocator)
	require.NoError(t, err)
	require.Equal(t, 8, e.Len())
	e.Free()
}

func TestNewOOM(t *testing.T) {
	allocator := malloc.NewLimitAllocator(malloc.NewGoAllocator(), 64)
	b, err := New[int64](8, allocator)
	require.NoError(t, err)

	_, err = New[int64](1, allocator)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))

	b.Free()
	require.Equal(t, uint64(0), allocator.Inuse())
	b2, err := New[int64](1, allocator)
	require.NoError(t, err)
	b2.Free()
}

func TestSwapAndTake(t *testing.T) {
	allocator := malloc.NewLimitAllocator(malloc.NewGoAllocator(), malloc.MB)
	a, err := New[int32](2, allocator)
	require.NoError(t, err)
	b, err := New[int32](5, allocator)
	require.NoError(t, err)
	a.Set(0, 10)
	b.Set(4, 40)

	a.Swap(b)
	require.Equal(t, 5, a.Len())
	require.Equal(t, 2, b.Len())
	require.Equal(t, int32(40), a.Get(4))
	require.Equal(t, int32(10), b.Get(0))

	c := a.Take()
	require.Equal(t, 0, a.Len())
	require.Equal(t, 5, c.Len())
	require.Equal(t, uint64(28), allocator.Inuse())

	// the emptied source owns nothing and releases nothing
	a.Free()
	require.Equal(t, uint64(28), allocator.Inuse())
	c.Free()
	c.Free()
	require.Equal(t, uint64(8), allocator.Inuse())
	b.Free()
	require.Equal(t, uint64(0), allocator.Inuse())
}

func TestFreeOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dec := malloc.NewMockDeallocator(ctrl)
	dec.EXPECT().Deallocate(malloc.Hints(0)).Times(1)
	allocator := malloc.NewMockAllocator(ctrl)
	allocator.EXPECT().Allocate(uint64(32), malloc.Hints(0)).Return(make([]byte, 32), dec, nil)

	b, err := New[uint64](4, allocator)
	require.NoError(t, err)
	b.Free()
	b.Free()
}

func TestHasPointers(t *testing.T) {
	require.True(t, rawStorable[int]())
	require.True(t, rawStorable[float64]())
	require.True(t, rawStorable[point]())
	require.True(t, rawStorable[[3]complex128]())
	require.False(t, rawStorable[named]())
	require.False(t, rawStorable[*int]())
	require.False(t, rawStorable[[]byte]())
	require.False(t, rawStorable[any]())
	require.False(t, rawStorable[struct{}]())
	require.False(t, rawStorable[[0]int]())
	// cached
	require.True(t, rawStorable[int]())

	require.False(t, HasPointers[int64]())
	require.False(t, HasPointers[point]())
	require.False(t, HasPointers[struct{}]())
	require.True(t, HasPointers[named]())
	require.True(t, HasPointers[string]())
	require.True(t, HasPointers[map[int]int]())
}
