// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

// NewVulkanDriver creates a Driver on top of an instance
func NewVulkanDriver(instance core.Instance) *VulkanDriver {
	return &VulkanDriver{
		instance: instance,
	}
}

// VulkanDriver calls into the Vulkan API
type VulkanDriver struct {
	instance core.Instance
}

var _ Driver = (*VulkanDriver)(nil)

// PhysicalDevices implements interface
func (v *VulkanDriver) PhysicalDevices() ([]vk.PhysicalDevice, error) {
	return v.instance.PhysicalDevices()
}

// Properties implements interface
func (v *VulkanDriver) Properties(dev vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(dev, &properties)
	properties.Deref()
	properties.Limits.Deref()
	return properties
}

// Features implements interface
func (v *VulkanDriver) Features(dev vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(dev, &features)
	features.Deref()
	return features
}

// MemoryProperties implements interface
func (v *VulkanDriver) MemoryProperties(dev vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(dev, &memoryProperties)
	memoryProperties.Deref()
	for i := uint32(0); i < memoryProperties.MemoryHeapCount; i++ {
		memoryProperties.MemoryHeaps[i].Deref()
	}
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
	}
	return memoryProperties
}

// QueueFamilies implements interface
func (v *VulkanDriver) QueueFamilies(dev vk.PhysicalDevice) []vk.QueueFamilyProperties {
	families := core.Collect(func(count *uint32, out []vk.QueueFamilyProperties) {
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, count, out)
	})
	for i := range families {
		families[i].Deref()
	}
	return families
}

// SurfaceSupport implements interface
func (v *VulkanDriver) SurfaceSupport(dev vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	var supported vk.Bool32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(dev, family, surface, &supported)); err != nil {
		return false, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceSupport()")
	}
	return core.Bool(supported), nil
}

// Extensions implements interface
func (v *VulkanDriver) Extensions(dev vk.PhysicalDevice) ([]string, error) {
	properties, err := core.Enumerate("vk.EnumerateDeviceExtensionProperties", func(count *uint32, out []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateDeviceExtensionProperties(dev, "", count, out)
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(properties))
	for i := range properties {
		properties[i].Deref()
		names = append(names, vk.ToString(properties[i].ExtensionName[:]))
	}
	return names, nil
}

// Layers implements interface
func (v *VulkanDriver) Layers(dev vk.PhysicalDevice) ([]string, error) {
	properties, err := core.Enumerate("vk.EnumerateDeviceLayerProperties", func(count *uint32, out []vk.LayerProperties) vk.Result {
		return vk.EnumerateDeviceLayerProperties(dev, count, out)
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(properties))
	for i := range properties {
		properties[i].Deref()
		names = append(names, vk.ToString(properties[i].LayerName[:]))
	}
	return names, nil
}

// CreateDevice implements interface
func (v *VulkanDriver) CreateDevice(dev vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var device vk.Device
	if err := vk.Error(vk.CreateDevice(dev, info, nil, &device)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDevice()")
	}
	return device, nil
}

// DeviceQueue implements interface
func (v *VulkanDriver) DeviceQueue(dev vk.Device, family, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(dev, family, index, &queue)
	return queue
}

// WaitIdle implements interface
func (v *VulkanDriver) WaitIdle(dev vk.Device) error {
	if err := vk.Error(vk.DeviceWaitIdle(dev)); err != nil {
		return errors.Wrap(err, "vk.DeviceWaitIdle()")
	}
	return nil
}

// DestroyDevice implements interface
func (v *VulkanDriver) DestroyDevice(dev vk.Device) {
	vk.DestroyDevice(dev, nil)
}

// Describe gathers the report for a single physical device.
// Failing extension or layer queries mark the report Invalid.
func Describe(d Driver, dev vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	if extensions, err := d.Extensions(dev); err != nil {
		info.Invalid = true
	} else {
		info.Extensions = extensions
	}

	if layers, err := d.Layers(dev); err != nil {
		info.Invalid = true
	} else {
		info.Layers = layers
	}

	memoryProperties := d.MemoryProperties(dev)
	info.Memory = totalMemory(memoryProperties, false)
	info.DeviceLocalMemory = totalMemory(memoryProperties, true)

	properties := d.Properties(dev)
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	info.Type = TypeName(properties.DeviceType)
	info.MaxImageDim2D = properties.Limits.MaxImageDimension2D

	info.GeometryShader = core.Bool(d.Features(dev).GeometryShader)
	info.QueueFamilies = len(d.QueueFamilies(dev))
	return info
}

// TypeName is a readable name of a device type
func TypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}

func totalMemory(memoryProperties vk.PhysicalDeviceMemoryProperties, deviceLocalOnly bool) vk.DeviceSize {
	var total vk.DeviceSize
	for i := uint32(0); i < memoryProperties.MemoryHeapCount && int(i) < len(memoryProperties.MemoryHeaps); i++ {
		heap := memoryProperties.MemoryHeaps[i]
		if deviceLocalOnly && heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) == 0 {
			continue
		}
		total += heap.Size
	}
	return total
}
