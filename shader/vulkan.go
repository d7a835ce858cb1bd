// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// VulkanDriver calls into the Vulkan API
type VulkanDriver struct{}

var _ Driver = VulkanDriver{}

// CreateShaderModule implements interface
func (VulkanDriver) CreateShaderModule(dev vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(dev, info, nil, &module)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateShaderModule()")
	}
	return module, nil
}

// DestroyShaderModule implements interface
func (VulkanDriver) DestroyShaderModule(dev vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(dev, module, nil)
}
