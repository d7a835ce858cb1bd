// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

const queuePriority = float32(1.0)

// CreateLogicalDevice opens dev with one queue on every distinct family in
// indices. The required extensions and the geometry shader feature are
// enabled, layers are mirrored for loaders that still read them.
func CreateLogicalDevice(d Driver, dev vk.PhysicalDevice, indices QueueFamilyIndices, cfg core.DeviceConfiguration) (*LogicalDevice, error) {
	if !indices.IsComplete(cfg.RequireCompute) {
		return nil, ErrIncompleteQueueFamily
	}

	families := indices.Unique(cfg.RequireCompute)
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(families))
	for _, f := range families {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: f,
			QueueCount:       1,
			PQueuePriorities: []float32{queuePriority},
		})
	}

	extensions := RequiredExtensions(cfg.Extensions)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: core.SafeStrings(extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     core.SafeStrings(cfg.Layers),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			GeometryShader: vk.True,
		}},
	}

	device, err := d.CreateDevice(dev, &dci)
	if err != nil {
		return nil, err
	}

	ld := &LogicalDevice{
		driver:   d,
		physical: dev,
		device:   device,
		indices:  indices,
		graphics: d.DeviceQueue(device, *indices.Graphics, 0),
		present:  d.DeviceQueue(device, *indices.Present, 0),
	}
	if cfg.RequireCompute {
		ld.compute = d.DeviceQueue(device, *indices.Compute, 0)
	}

	log.WithFields(log.Fields{
		"families":   families,
		"extensions": extensions,
	}).Debug("logical device created")
	return ld, nil
}

// LogicalDevice owns an opened device and the queues fetched from it.
// It is shared by reference with everything created on the device and
// must be destroyed after all of them.
type LogicalDevice struct {
	driver   Driver
	physical vk.PhysicalDevice
	device   vk.Device
	indices  QueueFamilyIndices

	graphics vk.Queue
	present  vk.Queue
	compute  vk.Queue
}

// Handle returns the vk.Device
func (l *LogicalDevice) Handle() vk.Device {
	return l.device
}

// Physical returns the physical device it was opened on
func (l *LogicalDevice) Physical() vk.PhysicalDevice {
	return l.physical
}

// Indices returns the queue families the device was created with
func (l *LogicalDevice) Indices() QueueFamilyIndices {
	return l.indices
}

// GraphicsQueue returns the first queue of the graphics family
func (l *LogicalDevice) GraphicsQueue() vk.Queue {
	return l.graphics
}

// PresentQueue returns the first queue of the present family
func (l *LogicalDevice) PresentQueue() vk.Queue {
	return l.present
}

// ComputeQueue returns the compute queue, nil when compute was not required
func (l *LogicalDevice) ComputeQueue() vk.Queue {
	return l.compute
}

// WaitIdle blocks until the device finished all submitted work
func (l *LogicalDevice) WaitIdle() error {
	if l.device == nil {
		return nil
	}
	return l.driver.WaitIdle(l.device)
}

// Destroy destroys the logical device
func (l *LogicalDevice) Destroy() {
	if l.device == nil {
		return
	}
	l.driver.DestroyDevice(l.device)
	l.device = nil
	l.graphics, l.present, l.compute = nil, nil, nil
}

// errNilDevice guards constructors that need an opened device
var errNilDevice = errors.New("logical device is not created")

// Check returns an error when l is nil or already destroyed
func (l *LogicalDevice) Check() error {
	if l == nil || l.device == nil {
		return errNilDevice
	}
	return nil
}
