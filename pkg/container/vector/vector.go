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

package vector

import (
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/matrixorigin/simplevector/pkg/common/buffer"
	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/common/moerr"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Vector is a contiguous growable sequence of T.
//
// Slots [0, Size()) hold the elements in order, slots [Size(), Capacity())
// are reserved storage. A Vector has a single owner and is not safe for
// concurrent use.
//
// Any call that changes the capacity moves the elements to new storage.
// Slices returned by Slice and pointers returned by GetPtr must not be kept
// across such a call. Indices stay meaningful.
//
// The zero value is an empty vector that allocates from malloc.GetDefault.
type Vector[T any] struct {
	_         noCopy
	buf       buffer.Buffer[T]
	size      int
	capacity  int
	allocator malloc.Allocator
}

type Option func(*options)

type options struct {
	allocator malloc.Allocator
}

// WithAllocator sets the allocator used for the vector's storage. The
// process default from malloc.GetDefault is used otherwise.
func WithAllocator(allocator malloc.Allocator) Option {
	return func(o *options) {
		o.allocator = allocator
	}
}

// ReserveRequest asks for an empty vector with preallocated capacity. It
// exists so that reserving n slots can never be mistaken for creating n
// elements.
type ReserveRequest struct {
	capacity int
}

func Reserve(capacity int) ReserveRequest {
	return ReserveRequest{capacity: capacity}
}

func (r ReserveRequest) Capacity() int {
	return r.capacity
}

// New returns an empty vector with no storage.
func New[T any](opts ...Option) *Vector[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.allocator == nil {
		o.allocator = malloc.GetDefault()
	}
	return &Vector[T]{
		allocator: o.allocator,
	}
}

// NewWithSize returns a vector of n zero values, size == capacity == n.
func NewWithSize[T any](n int, opts ...Option) (*Vector[T], error) {
	checkSize(n)
	v := New[T](opts...)
	if err := v.Reserve(n); err != nil {
		return nil, err
	}
	v.size = n
	return v, nil
}

// NewWithValue returns a vector of n copies of value, size == capacity == n.
func NewWithValue[T any](n int, value T, opts ...Option) (*Vector[T], error) {
	v, err := NewWithSize[T](n, opts...)
	if err != nil {
		return nil, err
	}
	base := v.buf.Base()
	for i := range base {
		base[i] = value
	}
	return v, nil
}

// NewFromValues returns a vector holding values in order,
// size == capacity == len(values).
func NewFromValues[T any](values []T, opts ...Option) (*Vector[T], error) {
	v := New[T](opts...)
	if err := v.Reserve(len(values)); err != nil {
		return nil, err
	}
	copy(v.buf.Base(), values)
	v.size = len(values)
	return v, nil
}

// NewWithReserve returns an empty vector whose capacity is exactly
// req.Capacity().
func NewWithReserve[T any](req ReserveRequest, opts ...Option) (*Vector[T], error) {
	checkSize(req.capacity)
	v := New[T](opts...)
	if err := v.Reserve(req.capacity); err != nil {
		return nil, err
	}
	return v, nil
}

// Dup use to copy an identical vector. The copy has its own storage with the
// same capacity as v.
func (v *Vector[T]) Dup() (*Vector[T], error) {
	return v.dupWith(v.getAllocator())
}

func (v *Vector[T]) dupWith(allocator malloc.Allocator) (*Vector[T], error) {
	buf, err := buffer.New[T](v.capacity, allocator)
	if err != nil {
		return nil, err
	}
	copy(buf.Base(), v.Slice())
	ret := &Vector[T]{
		size:      v.size,
		capacity:  v.capacity,
		allocator: allocator,
	}
	ret.buf.Swap(buf)
	return ret, nil
}

// CopyFrom replaces the content of v with a copy of src. On error v is left
// unchanged.
func (v *Vector[T]) CopyFrom(src *Vector[T]) error {
	if v == src {
		return nil
	}
	tmp, err := src.dupWith(v.getAllocator())
	if err != nil {
		return err
	}
	v.Swap(tmp)
	tmp.Free()
	return nil
}

// Move transfers the storage of src into a new vector. src is left empty
// with zero capacity and stays usable.
func Move[T any](src *Vector[T]) *Vector[T] {
	v := &Vector[T]{
		size:      src.size,
		capacity:  src.capacity,
		allocator: src.allocator,
	}
	v.buf.Swap(&src.buf)
	src.size = 0
	src.capacity = 0
	return v
}

// MoveFrom releases the storage of v and takes over the storage of src,
// leaving src empty with zero capacity. Moving a vector into itself does
// nothing.
func (v *Vector[T]) MoveFrom(src *Vector[T]) {
	if v == src {
		return
	}
	v.buf.Free()
	v.buf.Swap(&src.buf)
	v.size, v.capacity = src.size, src.capacity
	v.allocator = src.allocator
	src.size = 0
	src.capacity = 0
}

// Swap exchanges the storage of v and o.
func (v *Vector[T]) Swap(o *Vector[T]) {
	v.buf.Swap(&o.buf)
	v.size, o.size = o.size, v.size
	v.capacity, o.capacity = o.capacity, v.capacity
	v.allocator, o.allocator = o.allocator, v.allocator
}

// Free releases the storage. v becomes an empty vector and may be reused.
func (v *Vector[T]) Free() {
	v.buf.Free()
	v.size = 0
	v.capacity = 0
}

func (v *Vector[T]) Size() int {
	return v.size
}

func (v *Vector[T]) Capacity() int {
	return v.capacity
}

func (v *Vector[T]) IsEmpty() bool {
	return v.size == 0
}

// Get returns the element at i without checking i against Size. It is meant
// for call sites that already know i < Size(); for any other i the result is
// undefined. Use At when the index is not trusted.
func (v *Vector[T]) Get(i int) T {
	return v.buf.Base()[i]
}

// GetPtr returns the address of slot i, with the same contract as Get.
func (v *Vector[T]) GetPtr(i int) *T {
	return &v.buf.Base()[i]
}

// Set writes slot i, with the same contract as Get.
func (v *Vector[T]) Set(i int, val T) {
	v.buf.Base()[i] = val
}

// At returns the element at i, or an ErrOutOfRange error naming i when
// i is not in [0, Size()).
func (v *Vector[T]) At(i int) (T, error) {
	if i < 0 || i >= v.size {
		var zero T
		return zero, moerr.NewOutOfRangeNoCtx("vector", "index %d, size %d", i, v.size)
	}
	return v.buf.Base()[i], nil
}

func (v *Vector[T]) Front() (T, error) {
	if v.size == 0 {
		var zero T
		return zero, moerr.NewEmptyVectorNoCtx()
	}
	return v.buf.Base()[0], nil
}

func (v *Vector[T]) Back() (T, error) {
	if v.size == 0 {
		var zero T
		return zero, moerr.NewEmptyVectorNoCtx()
	}
	return v.buf.Base()[v.size-1], nil
}

// Slice returns the elements as a slice sharing v's storage. Its capacity
// is clipped to Size so appending to it never writes into v.
func (v *Vector[T]) Slice() []T {
	return v.buf.Base()[:v.size:v.size]
}

// Reserve grows the capacity to exactly capacity if it is larger than the
// current one. Size does not change.
func (v *Vector[T]) Reserve(capacity int) error {
	if capacity <= v.capacity {
		return nil
	}
	tmp, err := buffer.New[T](capacity, v.getAllocator())
	if err != nil {
		return err
	}
	copy(tmp.Base(), v.Slice())
	v.replace(tmp, capacity)
	return nil
}

// Resize changes the size to n. Shrinking keeps the capacity. Growing fills
// the new slots with zero values and, when n exceeds the capacity, grows the
// capacity to max(n, 2*Capacity()).
func (v *Vector[T]) Resize(n int) error {
	checkSize(n)
	if n <= v.size {
		v.truncate(n)
		return nil
	}
	if n <= v.capacity {
		clear(v.buf.Base()[v.size:n])
		v.size = n
		return nil
	}

	capacity := max(n, 2*v.capacity)
	tmp, err := buffer.New[T](capacity, v.getAllocator())
	if err != nil {
		return err
	}
	copy(tmp.Base(), v.Slice())
	v.replace(tmp, capacity)
	v.size = n
	return nil
}

// PushBack appends val, doubling the capacity when it is full.
func (v *Vector[T]) PushBack(val T) error {
	if v.size < v.capacity {
		v.buf.Base()[v.size] = val
		v.size++
		return nil
	}

	capacity := v.grownCapacity()
	tmp, err := buffer.New[T](capacity, v.getAllocator())
	if err != nil {
		return err
	}
	copy(tmp.Base(), v.Slice())
	tmp.Set(v.size, val)
	v.replace(tmp, capacity)
	v.size++
	return nil
}

// Append appends values in order, growing the capacity at most once.
func (v *Vector[T]) Append(values ...T) error {
	n := v.size + len(values)
	if n <= v.capacity {
		copy(v.buf.Base()[v.size:n], values)
		v.size = n
		return nil
	}

	capacity := v.grownCapacity()
	for capacity < n {
		capacity *= 2
	}
	tmp, err := buffer.New[T](capacity, v.getAllocator())
	if err != nil {
		return err
	}
	// values may alias v, fill before the old block is released
	dst := tmp.Base()
	copy(dst, v.Slice())
	copy(dst[v.size:n], values)
	v.replace(tmp, capacity)
	v.size = n
	return nil
}

// Insert puts val at pos and shifts the elements from pos on one slot to the
// right. pos must be in [0, Size()]; pos == Size() appends. It returns the
// index of the inserted element.
func (v *Vector[T]) Insert(pos int, val T) (int, error) {
	checkPosition(pos, v.size)

	if v.size < v.capacity {
		base := v.buf.Base()
		// copy is a memmove, the overlapping tail shifts safely
		copy(base[pos+1:v.size+1], base[pos:v.size])
		base[pos] = val
		v.size++
		return pos, nil
	}

	capacity := v.grownCapacity()
	tmp, err := buffer.New[T](capacity, v.getAllocator())
	if err != nil {
		return pos, err
	}
	base, dst := v.buf.Base(), tmp.Base()
	copy(dst[:pos], base[:pos])
	dst[pos] = val
	copy(dst[pos+1:], base[pos:v.size])
	v.replace(tmp, capacity)
	v.size++
	return pos, nil
}

// PopBack removes the last element. It does nothing on an empty vector.
func (v *Vector[T]) PopBack() {
	if v.size == 0 {
		return
	}
	v.size--
	var zero T
	v.buf.Base()[v.size] = zero
}

// Erase removes the element at pos, pos in [0, Size()), and shifts the
// following elements one slot to the left. It returns pos, which now holds
// the element that followed the removed one.
func (v *Vector[T]) Erase(pos int) int {
	checkPosition(pos, v.size-1)

	base := v.buf.Base()
	copy(base[pos:v.size-1], base[pos+1:v.size])
	v.size--
	var zero T
	base[v.size] = zero
	return pos
}

// Clear drops all elements. The capacity and the storage are kept.
func (v *Vector[T]) Clear() {
	v.truncate(0)
}

// truncate sets the size to n <= Size(). Slots of types holding pointers are
// cleared so they do not keep garbage alive.
func (v *Vector[T]) truncate(n int) {
	if buffer.HasPointers[T]() {
		clear(v.buf.Base()[n:v.size])
	}
	v.size = n
}

// All iterates over index, element pairs in order.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(i, v.buf.Base()[i]) {
				return
			}
		}
	}
}

// Values iterates over the elements in order.
func (v *Vector[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(v.buf.Base()[i]) {
				return
			}
		}
	}
}

// Backward iterates over index, element pairs from the last element.
func (v *Vector[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, v.buf.Base()[i]) {
				return
			}
		}
	}
}

func (v *Vector[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, val := range v.All() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, val)
	}
	b.WriteByte(']')
	return b.String()
}

func (v *Vector[T]) getAllocator() malloc.Allocator {
	if v.allocator == nil {
		v.allocator = malloc.GetDefault()
	}
	return v.allocator
}

func (v *Vector[T]) grownCapacity() int {
	if v.capacity == 0 {
		return 1
	}
	return 2 * v.capacity
}

// replace installs tmp as the storage and releases the old block.
func (v *Vector[T]) replace(tmp *buffer.Buffer[T], capacity int) {
	if logutil.GetSkip1Logger().Core().Enabled(zap.DebugLevel) {
		logutil.Debug("vector reallocate",
			zap.Int("size", v.size),
			zap.Int("old capacity", v.capacity),
			zap.Int("new capacity", capacity),
		)
	}
	v.buf.Swap(tmp)
	tmp.Free()
	v.capacity = capacity
}

func checkSize(n int) {
	if n < 0 {
		panic(moerr.NewInvalidInputNoCtx("negative vector size %d", n))
	}
}

func checkPosition(pos, upper int) {
	if pos < 0 || pos > upper {
		panic(moerr.NewInvalidInputNoCtx("position %d out of range [0, %d]", pos, upper))
	}
}
