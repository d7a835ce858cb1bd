// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device picks the physical device the engine renders with
// and opens the logical device and its queues on it.
package device

import (
	"sort"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// package errors
var (
	ErrNoDevices             = errors.New("no physical devices with vulkan support")
	ErrNoSuitableDevice      = errors.New("no suitable physical device")
	ErrIncompleteQueueFamily = errors.New("queue families are incomplete")
)

// Driver is the slice of the Vulkan API device selection runs on.
// Returned structures are already dereferenced.
type Driver interface {
	PhysicalDevices() ([]vk.PhysicalDevice, error)
	Properties(vk.PhysicalDevice) vk.PhysicalDeviceProperties
	Features(vk.PhysicalDevice) vk.PhysicalDeviceFeatures
	MemoryProperties(vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties
	QueueFamilies(vk.PhysicalDevice) []vk.QueueFamilyProperties
	SurfaceSupport(dev vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error)
	Extensions(vk.PhysicalDevice) ([]string, error)
	Layers(vk.PhysicalDevice) ([]string, error)

	CreateDevice(vk.PhysicalDevice, *vk.DeviceCreateInfo) (vk.Device, error)
	DeviceQueue(dev vk.Device, family, index uint32) vk.Queue
	WaitIdle(vk.Device) error
	DestroyDevice(vk.Device)
}

// QueueFamilyIndices holds the queue families resolved for
// a device and surface pair. Unset families are nil.
type QueueFamilyIndices struct {
	Graphics *uint32
	Present  *uint32
	Compute  *uint32
}

// IsComplete is true when graphics and present families are known,
// and the compute family too when requireCompute is set.
func (q QueueFamilyIndices) IsComplete(requireCompute bool) bool {
	if q.Graphics == nil || q.Present == nil {
		return false
	}
	return !requireCompute || q.Compute != nil
}

// Unique returns the distinct families queues are created on, in
// ascending order. Compute is included only when withCompute is set.
func (q QueueFamilyIndices) Unique(withCompute bool) []uint32 {
	set := make(map[uint32]struct{}, 3)
	for _, f := range []*uint32{q.Graphics, q.Present} {
		if f != nil {
			set[*f] = struct{}{}
		}
	}
	if withCompute && q.Compute != nil {
		set[*q.Compute] = struct{}{}
	}

	families := make([]uint32, 0, len(set))
	for f := range set {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// Shared is true when graphics and present resolve to different families,
// images then have to be shared between them.
func (q QueueFamilyIndices) Shared() bool {
	return q.Graphics != nil && q.Present != nil && *q.Graphics != *q.Present
}

func family(i uint32) *uint32 {
	return &i
}

// Candidate is a scored physical device
type Candidate struct {
	Device  vk.PhysicalDevice
	Score   int32
	Indices QueueFamilyIndices
	Info    PhysicalDeviceInfo
}

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID                int
	VendorID          int
	DriverVersion     int
	Name              string
	Type              string
	Invalid           bool
	Extensions        []string
	Layers            []string
	Memory            vk.DeviceSize
	DeviceLocalMemory vk.DeviceSize
	MaxImageDim2D     uint32
	GeometryShader    bool
	QueueFamilies     int
}
