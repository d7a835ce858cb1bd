// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the root of the engine: the graphics instance with
// its presentation surface, engine configuration and the small helpers
// every other package needs to talk to the Vulkan API.
package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Destroyable is anything that owns native handles
// and must be destroyed explicitly
type Destroyable interface {
	// Destroy releases owned handles. Calling it twice is a no-op
	Destroy()
}

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	Destroyable

	// PhysicalDevices returns handles of Physical Devices
	// from the Vulkan API
	PhysicalDevices() ([]vk.PhysicalDevice, error)

	// SetSurface sets the window surface for rendering
	SetSurface(unsafe.Pointer)

	// Surface returns the window surface, if it's not set
	// it should return a valid but empty surface
	Surface() vk.Surface

	// Extensions returns enabled instance extensions
	Extensions() []string

	// Layers returns enabled instance layers
	Layers() []string

	// Instance returns the inner handle of the underlying API
	Instance() vk.Instance
}
