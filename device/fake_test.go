// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/device"
)

const gib = 1 << 30

type fakeGPU struct {
	name       string
	kind       vk.PhysicalDeviceType
	geometry   bool
	maxImage2D uint32
	localHeap  vk.DeviceSize
	hostHeap   vk.DeviceSize
	families   []vk.QueueFlagBits
	present    []bool
	extensions []string
	layers     []string
}

func discrete(name string) *fakeGPU {
	return &fakeGPU{
		name:       name,
		kind:       vk.PhysicalDeviceTypeDiscreteGpu,
		geometry:   true,
		maxImage2D: 16384,
		localHeap:  8 * gib,
		hostHeap:   16 * gib,
		families:   []vk.QueueFlagBits{vk.QueueGraphicsBit | vk.QueueComputeBit},
		present:    []bool{true},
		extensions: []string{vk.KhrSwapchainExtensionName},
	}
}

func integrated(name string) *fakeGPU {
	gpu := discrete(name)
	gpu.kind = vk.PhysicalDeviceTypeIntegratedGpu
	gpu.maxImage2D = 8192
	gpu.localHeap = 2 * gib
	return gpu
}

type queueRequest struct {
	Family, Index uint32
}

type fakeDriver struct {
	gpus    []*fakeGPU
	handles map[vk.PhysicalDevice]*fakeGPU
	order   []vk.PhysicalDevice

	enumerateErr error
	supportErr   error
	createErr    error

	supportCalls []uint32
	created      *vk.DeviceCreateInfo
	queues       []queueRequest
	device       int
	destroyed    int
}

func newFakeDriver(gpus ...*fakeGPU) *fakeDriver {
	d := &fakeDriver{
		gpus:    gpus,
		handles: map[vk.PhysicalDevice]*fakeGPU{},
	}
	for _, gpu := range gpus {
		handle := vk.PhysicalDevice(unsafe.Pointer(gpu))
		d.handles[handle] = gpu
		d.order = append(d.order, handle)
	}
	return d
}

func (f *fakeDriver) handle(i int) vk.PhysicalDevice {
	return f.order[i]
}

func (f *fakeDriver) PhysicalDevices() ([]vk.PhysicalDevice, error) {
	if f.enumerateErr != nil {
		return nil, f.enumerateErr
	}
	return append([]vk.PhysicalDevice(nil), f.order...), nil
}

func (f *fakeDriver) Properties(dev vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	gpu := f.handles[dev]
	var p vk.PhysicalDeviceProperties
	p.DeviceType = gpu.kind
	p.DeviceID = uint32(len(gpu.name))
	copy(p.DeviceName[:], gpu.name)
	p.Limits.MaxImageDimension2D = gpu.maxImage2D
	return p
}

func (f *fakeDriver) Features(dev vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	if f.handles[dev].geometry {
		features.GeometryShader = vk.True
	}
	return features
}

func (f *fakeDriver) MemoryProperties(dev vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	gpu := f.handles[dev]
	var m vk.PhysicalDeviceMemoryProperties
	m.MemoryHeapCount = 2
	m.MemoryHeaps[0] = vk.MemoryHeap{
		Size:  gpu.localHeap,
		Flags: vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit),
	}
	m.MemoryHeaps[1] = vk.MemoryHeap{
		Size: gpu.hostHeap,
	}
	return m
}

func (f *fakeDriver) QueueFamilies(dev vk.PhysicalDevice) []vk.QueueFamilyProperties {
	gpu := f.handles[dev]
	families := make([]vk.QueueFamilyProperties, len(gpu.families))
	for i, flags := range gpu.families {
		families[i].QueueFlags = vk.QueueFlags(flags)
		families[i].QueueCount = 1
	}
	return families
}

func (f *fakeDriver) SurfaceSupport(dev vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	f.supportCalls = append(f.supportCalls, family)
	if f.supportErr != nil {
		return false, f.supportErr
	}
	return f.handles[dev].present[family], nil
}

func (f *fakeDriver) Extensions(dev vk.PhysicalDevice) ([]string, error) {
	return f.handles[dev].extensions, nil
}

func (f *fakeDriver) Layers(dev vk.PhysicalDevice) ([]string, error) {
	return f.handles[dev].layers, nil
}

func (f *fakeDriver) CreateDevice(dev vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	if f.createErr != nil {
		return nil, errors.Wrap(f.createErr, "vk.CreateDevice()")
	}
	f.created = info
	return vk.Device(unsafe.Pointer(&f.device)), nil
}

func (f *fakeDriver) DeviceQueue(dev vk.Device, family, index uint32) vk.Queue {
	f.queues = append(f.queues, queueRequest{family, index})
	backing := new(int)
	return vk.Queue(unsafe.Pointer(backing))
}

func (f *fakeDriver) WaitIdle(vk.Device) error {
	return nil
}

func (f *fakeDriver) DestroyDevice(vk.Device) {
	f.destroyed++
}

var _ device.Driver = (*fakeDriver)(nil)

var testSurface = vk.Surface(unsafe.Pointer(new(int)))
