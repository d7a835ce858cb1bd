// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Enumerate runs the count-then-fill pattern of native enumeration
// calls and returns an owned slice. call names the native function
// in returned errors.
func Enumerate[T any](call string, fill func(count *uint32, out []T) vk.Result) ([]T, error) {
	var count uint32
	if err := vk.Error(fill(&count, nil)); err != nil {
		return nil, errors.Wrapf(err, "%s(count)", call)
	}
	if count == 0 {
		return nil, nil
	}

	out := make([]T, count)
	if err := vk.Error(fill(&count, out)); err != nil {
		return nil, errors.Wrapf(err, "%s(fill)", call)
	}
	return out[:count], nil
}

// Collect is Enumerate for native calls that cannot fail
func Collect[T any](fill func(count *uint32, out []T)) []T {
	var count uint32
	fill(&count, nil)
	if count == 0 {
		return nil
	}

	out := make([]T, count)
	fill(&count, out)
	return out[:count]
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// SafeString terminates s for the C side, once
func SafeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// SafeStrings terminates every string in sgs
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}

// TrimString strips the terminator SafeString adds
func TrimString(s string) string {
	return strings.TrimRight(s, "\x00")
}

// Bool converts a vk.Bool32 into a Go bool
func Bool(b vk.Bool32) bool {
	return b == vk.True
}

// Bool32 converts a Go bool into a vk.Bool32
func Bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
