// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// VulkanDriver calls into the Vulkan API
type VulkanDriver struct{}

var _ Driver = VulkanDriver{}

// CreateGraphicsPipelines implements interface
func (VulkanDriver) CreateGraphicsPipelines(dev vk.Device, cache vk.PipelineCache, infos []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, len(infos))
	if err := vk.Error(vk.CreateGraphicsPipelines(dev, cache, uint32(len(infos)), infos, nil, pipelines)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}
	return pipelines, nil
}

// CmdBindPipeline implements interface
func (VulkanDriver) CmdBindPipeline(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cb, bindPoint, pipeline)
}

// DestroyPipeline implements interface
func (VulkanDriver) DestroyPipeline(dev vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(dev, pipeline, nil)
}

// CreatePipelineLayout implements interface
func (VulkanDriver) CreatePipelineLayout(dev vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(dev, info, nil, &layout)); err != nil {
		return nil, errors.Wrap(err, "vk.CreatePipelineLayout()")
	}
	return layout, nil
}

// DestroyPipelineLayout implements interface
func (VulkanDriver) DestroyPipelineLayout(dev vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(dev, layout, nil)
}

// CreateRenderPass implements interface
func (VulkanDriver) CreateRenderPass(dev vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(dev, info, nil, &renderPass)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateRenderPass()")
	}
	return renderPass, nil
}

// DestroyRenderPass implements interface
func (VulkanDriver) DestroyRenderPass(dev vk.Device, renderPass vk.RenderPass) {
	vk.DestroyRenderPass(dev, renderPass, nil)
}

// CreatePipelineCache implements interface
func (VulkanDriver) CreatePipelineCache(dev vk.Device, info *vk.PipelineCacheCreateInfo) (vk.PipelineCache, error) {
	var cache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(dev, info, nil, &cache)); err != nil {
		return nil, errors.Wrap(err, "vk.CreatePipelineCache()")
	}
	return cache, nil
}

// DestroyPipelineCache implements interface
func (VulkanDriver) DestroyPipelineCache(dev vk.Device, cache vk.PipelineCache) {
	vk.DestroyPipelineCache(dev, cache, nil)
}
