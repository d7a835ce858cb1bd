// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package swapchain creates the presentable images of a surface and the
// views the render pass draws into.
package swapchain

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/device"
)

// ErrSurfaceUnsupported is returned when a surface reports no formats or no present modes
var ErrSurfaceUnsupported = errors.New("surface has no formats or present modes")

// Driver is the slice of the Vulkan API swap chains are built with.
// Returned structures are already dereferenced.
type Driver interface {
	SurfaceCapabilities(vk.PhysicalDevice, vk.Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(vk.PhysicalDevice, vk.Surface) ([]vk.SurfaceFormat, error)
	PresentModes(vk.PhysicalDevice, vk.Surface) ([]vk.PresentMode, error)

	CreateSwapchain(vk.Device, *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	SwapchainImages(vk.Device, vk.Swapchain) ([]vk.Image, error)
	CreateImageView(vk.Device, *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(vk.Device, vk.ImageView)
	DestroySwapchain(vk.Device, vk.Swapchain)
}

// Device is the opened device a swap chain lives on,
// satisfied by *device.LogicalDevice.
type Device interface {
	Handle() vk.Device
	Physical() vk.PhysicalDevice
	Indices() device.QueueFamilyIndices
}

// SupportInfo is what a surface offers on a physical device
type SupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySupport asks the surface what it supports on pd
func QuerySupport(d Driver, pd vk.PhysicalDevice, surface vk.Surface) (SupportInfo, error) {
	var (
		support SupportInfo
		err     error
	)
	if support.Capabilities, err = d.SurfaceCapabilities(pd, surface); err != nil {
		return SupportInfo{}, err
	}
	if support.Formats, err = d.SurfaceFormats(pd, surface); err != nil {
		return SupportInfo{}, err
	}
	if support.PresentModes, err = d.PresentModes(pd, surface); err != nil {
		return SupportInfo{}, err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return SupportInfo{}, ErrSurfaceUnsupported
	}
	return support, nil
}

// ChooseFormat prefers 8 bit BGRA sRGB in the non-linear sRGB color
// space and falls back to the first format offered.
// formats must not be empty.
func ChooseFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox, FIFO is always available
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the surface's current extent unless the surface lets
// the swap chain decide, then the framebuffer size is clamped to the
// supported range.
func ChooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ImageCount asks for one image above the minimum, a max of 0 means no limit
func ImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// SharingFor shares images concurrently when graphics and present are
// separate families, otherwise they stay exclusive to one family.
func SharingFor(indices device.QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if indices.Shared() {
		return vk.SharingModeConcurrent, []uint32{*indices.Graphics, *indices.Present}
	}
	return vk.SharingModeExclusive, nil
}

// New creates a swap chain sized from cfg
func New(d Driver, dev Device, surface vk.Surface, cfg core.SwapchainConfiguration) (*Swapchain, error) {
	s := &Swapchain{
		driver:  d,
		device:  dev,
		surface: surface,
	}
	if err := s.Create(cfg.ScreenWidth, cfg.ScreenHeight); err != nil {
		return nil, err
	}
	return s, nil
}

// Swapchain owns a swap chain handle and one view per image.
// The images themselves belong to the swap chain.
type Swapchain struct {
	driver  Driver
	device  Device
	surface vk.Surface

	handle vk.Swapchain
	format vk.SurfaceFormat
	extent vk.Extent2D
	mode   vk.PresentMode
	images []vk.Image
	views  []vk.ImageView
}

// Create queries the surface afresh and creates the swap chain for a
// framebuffer of width by height. A live chain is cleaned up first.
func (s *Swapchain) Create(width, height uint32) error {
	if s.handle != vk.NullSwapchain {
		s.Cleanup()
	}

	support, err := QuerySupport(s.driver, s.device.Physical(), s.surface)
	if err != nil {
		return err
	}

	format := ChooseFormat(support.Formats)
	mode := ChoosePresentMode(support.PresentModes)
	extent := ChooseExtent(support.Capabilities, width, height)
	sharing, families := SharingFor(s.device.Indices())

	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               s.surface,
		MinImageCount:         ImageCount(support.Capabilities),
		ImageFormat:           format.Format,
		ImageColorSpace:       format.ColorSpace,
		ImageExtent:           extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharing,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		PreTransform:          support.Capabilities.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           mode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	dev := s.device.Handle()
	handle, err := s.driver.CreateSwapchain(dev, &scci)
	if err != nil {
		return err
	}

	images, err := s.driver.SwapchainImages(dev, handle)
	if err != nil {
		s.driver.DestroySwapchain(dev, handle)
		return err
	}

	views := make([]vk.ImageView, 0, len(images))
	for idx, image := range images {
		view, err := s.driver.CreateImageView(dev, &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			for _, v := range views {
				s.driver.DestroyImageView(dev, v)
			}
			s.driver.DestroySwapchain(dev, handle)
			return errors.Wrapf(err, "image %d", idx)
		}
		views = append(views, view)
	}

	s.handle = handle
	s.format = format
	s.extent = extent
	s.mode = mode
	s.images = images
	s.views = views

	log.WithFields(log.Fields{
		"width":   extent.Width,
		"height":  extent.Height,
		"images":  len(images),
		"format":  format.Format,
		"mode":    mode,
		"sharing": sharing,
	}).Debug("swapchain created")
	return nil
}

// Recreate replaces the swap chain after a resize. The device must be
// idle. The old chain is destroyed first and not handed over.
func (s *Swapchain) Recreate(width, height uint32) error {
	s.Cleanup()
	return s.Create(width, height)
}

// Cleanup destroys the views, then the swap chain
func (s *Swapchain) Cleanup() {
	dev := s.device.Handle()
	for _, view := range s.views {
		s.driver.DestroyImageView(dev, view)
	}
	s.views = nil
	s.images = nil

	if s.handle != vk.NullSwapchain {
		s.driver.DestroySwapchain(dev, s.handle)
		s.handle = vk.NullSwapchain
	}
}

// Destroy implements core.Destroyable
func (s *Swapchain) Destroy() {
	s.Cleanup()
}

// Handle returns the vk.Swapchain
func (s *Swapchain) Handle() vk.Swapchain {
	return s.handle
}

// Format returns the chosen surface format
func (s *Swapchain) Format() vk.SurfaceFormat {
	return s.format
}

// Extent returns the size of the images
func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// PresentMode returns the chosen present mode
func (s *Swapchain) PresentMode() vk.PresentMode {
	return s.mode
}

// Images returns the swap chain images
func (s *Swapchain) Images() []vk.Image {
	return s.images
}

// Views returns one view per image, in image order
func (s *Swapchain) Views() []vk.ImageView {
	return s.views
}

var _ core.Destroyable = (*Swapchain)(nil)
