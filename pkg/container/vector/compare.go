// Copyright 2022 Matrix Origin
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
	"cmp"
	"slices"
)

// Equal reports whether a and b have the same size and equal elements in
// the same order. Capacity is not compared.
func Equal[T comparable](a, b *Vector[T]) bool {
	return slices.Equal(a.Slice(), b.Slice())
}

func EqualFunc[T any](a, b *Vector[T], eq func(T, T) bool) bool {
	return slices.EqualFunc(a.Slice(), b.Slice(), eq)
}

func NotEqual[T comparable](a, b *Vector[T]) bool {
	return !Equal(a, b)
}

// Compare compares a and b lexicographically and returns -1, 0 or +1.
// A vector that is a strict prefix of the other is the smaller one. Like
// slices.Compare it places a NaN before every other float, use Less for the
// order given by element <.
func Compare[T cmp.Ordered](a, b *Vector[T]) int {
	return slices.Compare(a.Slice(), b.Slice())
}

func CompareFunc[T any](a, b *Vector[T], cmp func(T, T) int) int {
	return slices.CompareFunc(a.Slice(), b.Slice(), cmp)
}

// Less reports whether a sorts before b lexicographically, comparing
// elements with <. Elements neither less nor greater than each other, such
// as a NaN and a number, count as equivalent.
func Less[T cmp.Ordered](a, b *Vector[T]) bool {
	x, y := a.Slice(), b.Slice()
	for i := range min(len(x), len(y)) {
		if x[i] < y[i] {
			return true
		}
		if y[i] < x[i] {
			return false
		}
	}
	return len(x) < len(y)
}

func LessEqual[T cmp.Ordered](a, b *Vector[T]) bool {
	return !Less(b, a)
}

func Greater[T cmp.Ordered](a, b *Vector[T]) bool {
	return Less(b, a)
}

func GreaterEqual[T cmp.Ordered](a, b *Vector[T]) bool {
	return !Less(a, b)
}
