// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

// VulkanDriver calls into the Vulkan API
type VulkanDriver struct{}

var _ Driver = VulkanDriver{}

// SurfaceCapabilities implements interface
func (VulkanDriver) SurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &caps)); err != nil {
		return caps, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

// SurfaceFormats implements interface
func (VulkanDriver) SurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	formats, err := core.Enumerate("vk.GetPhysicalDeviceSurfaceFormats", func(count *uint32, out []vk.SurfaceFormat) vk.Result {
		return vk.GetPhysicalDeviceSurfaceFormats(pd, surface, count, out)
	})
	if err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

// PresentModes implements interface
func (VulkanDriver) PresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	return core.Enumerate("vk.GetPhysicalDeviceSurfacePresentModes", func(count *uint32, out []vk.PresentMode) vk.Result {
		return vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, count, out)
	})
}

// CreateSwapchain implements interface
func (VulkanDriver) CreateSwapchain(dev vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(dev, info, nil, &swapchain)); err != nil {
		return vk.NullSwapchain, errors.Wrap(err, "vk.CreateSwapchain()")
	}
	return swapchain, nil
}

// SwapchainImages implements interface
func (VulkanDriver) SwapchainImages(dev vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	return core.Enumerate("vk.GetSwapchainImages", func(count *uint32, out []vk.Image) vk.Result {
		return vk.GetSwapchainImages(dev, swapchain, count, out)
	})
}

// CreateImageView implements interface
func (VulkanDriver) CreateImageView(dev vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev, info, nil, &view)); err != nil {
		return vk.NullImageView, errors.Wrap(err, "vk.CreateImageView()")
	}
	return view, nil
}

// DestroyImageView implements interface
func (VulkanDriver) DestroyImageView(dev vk.Device, view vk.ImageView) {
	vk.DestroyImageView(dev, view, nil)
}

// DestroySwapchain implements interface
func (VulkanDriver) DestroySwapchain(dev vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(dev, swapchain, nil)
}
