// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain_test

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/device"
	"github.com/devblok/xen/swapchain"
)

type fakeDevice struct {
	handle   vk.Device
	physical vk.PhysicalDevice
	indices  device.QueueFamilyIndices
}

func newFakeDevice(graphics, present uint32) *fakeDevice {
	return &fakeDevice{
		handle:   vk.Device(unsafe.Pointer(new(int))),
		physical: vk.PhysicalDevice(unsafe.Pointer(new(int))),
		indices:  device.QueueFamilyIndices{Graphics: &graphics, Present: &present},
	}
}

func (f *fakeDevice) Handle() vk.Device { return f.handle }
func (f *fakeDevice) Physical() vk.PhysicalDevice { return f.physical }
func (f *fakeDevice) Indices() device.QueueFamilyIndices { return f.indices }

// fakeDriver hands out labelled handles and records every
// create and destroy in order.
type fakeDriver struct {
	caps    vk.SurfaceCapabilities
	formats []vk.SurfaceFormat
	modes   []vk.PresentMode
	images  int

	capsErr   error
	createErr error
	viewErrAt int

	created    []vk.SwapchainCreateInfo
	generation int
	views      int
	labels     map[unsafe.Pointer]string
	events     []string
	live       map[string]bool
}

func newFakeDriver() *fakeDriver {
	var caps vk.SurfaceCapabilities
	caps.MinImageCount = 2
	caps.MaxImageCount = 8
	caps.CurrentExtent = vk.Extent2D{Width: 1024, Height: 768}
	caps.MinImageExtent = vk.Extent2D{Width: 1, Height: 1}
	caps.MaxImageExtent = vk.Extent2D{Width: 4096, Height: 4096}
	caps.CurrentTransform = vk.SurfaceTransformIdentityBit
	caps.SupportedCompositeAlpha = vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit)

	return &fakeDriver{
		caps: caps,
		formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		modes:     []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		images:    3,
		viewErrAt: -1,
		labels:    map[unsafe.Pointer]string{},
		live:      map[string]bool{},
	}
}

func (f *fakeDriver) handle(label string) unsafe.Pointer {
	p := unsafe.Pointer(new(int))
	f.labels[p] = label
	f.live[label] = true
	f.events = append(f.events, "create "+label)
	return p
}

func (f *fakeDriver) release(p unsafe.Pointer) {
	label := f.labels[p]
	delete(f.live, label)
	f.events = append(f.events, "destroy "+label)
}

func (f *fakeDriver) SurfaceCapabilities(vk.PhysicalDevice, vk.Surface) (vk.SurfaceCapabilities, error) {
	return f.caps, f.capsErr
}

func (f *fakeDriver) SurfaceFormats(vk.PhysicalDevice, vk.Surface) ([]vk.SurfaceFormat, error) {
	return f.formats, nil
}

func (f *fakeDriver) PresentModes(vk.PhysicalDevice, vk.Surface) ([]vk.PresentMode, error) {
	return f.modes, nil
}

func (f *fakeDriver) CreateSwapchain(dev vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	if f.createErr != nil {
		return vk.NullSwapchain, f.createErr
	}
	f.generation++
	f.views = 0
	f.created = append(f.created, *info)
	return vk.Swapchain(f.handle(fmt.Sprintf("swapchain:%d", f.generation))), nil
}

func (f *fakeDriver) SwapchainImages(vk.Device, vk.Swapchain) ([]vk.Image, error) {
	images := make([]vk.Image, f.images)
	for i := range images {
		images[i] = vk.Image(unsafe.Pointer(new(int)))
	}
	return images, nil
}

func (f *fakeDriver) CreateImageView(dev vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	index := f.views
	f.views++
	if index == f.viewErrAt {
		return vk.NullImageView, errors.New("out of host memory")
	}
	return vk.ImageView(f.handle(fmt.Sprintf("view:%d:%d", f.generation, index))), nil
}

func (f *fakeDriver) DestroyImageView(dev vk.Device, view vk.ImageView) {
	f.release(unsafe.Pointer(view))
}

func (f *fakeDriver) DestroySwapchain(dev vk.Device, s vk.Swapchain) {
	f.release(unsafe.Pointer(s))
}

var (
	_ swapchain.Driver = (*fakeDriver)(nil)
	_ swapchain.Device = (*fakeDevice)(nil)
	_ swapchain.Device = (*device.LogicalDevice)(nil)

	testSurface = vk.Surface(unsafe.Pointer(new(int)))
)
