// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"github.com/google/uuid"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

// Driver is the slice of the Vulkan API pipelines are built with
type Driver interface {
	CreateGraphicsPipelines(vk.Device, vk.PipelineCache, []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error)
	CmdBindPipeline(vk.CommandBuffer, vk.PipelineBindPoint, vk.Pipeline)
	DestroyPipeline(vk.Device, vk.Pipeline)

	CreatePipelineLayout(vk.Device, *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(vk.Device, vk.PipelineLayout)

	CreateRenderPass(vk.Device, *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(vk.Device, vk.RenderPass)

	CreatePipelineCache(vk.Device, *vk.PipelineCacheCreateInfo) (vk.PipelineCache, error)
	DestroyPipelineCache(vk.Device, vk.PipelineCache)
}

// noCopy makes go vet's copylocks check flag copies of the structs embedding it
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Pipeline owns a built graphics pipeline and its layout.
// It is only handed out by pointer and must not be copied.
type Pipeline struct {
	noCopy noCopy

	id       uuid.UUID
	driver   Driver
	device   vk.Device
	pipeline vk.Pipeline
	layout   vk.PipelineLayout
}

// ID identifies the pipeline in logs
func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

// Handle returns the vk.Pipeline, nil once destroyed
func (p *Pipeline) Handle() vk.Pipeline {
	return p.pipeline
}

// Layout returns the vk.PipelineLayout, nil once destroyed
func (p *Pipeline) Layout() vk.PipelineLayout {
	return p.layout
}

// Bind binds the pipeline at the graphics bind point
func (p *Pipeline) Bind(cb vk.CommandBuffer) {
	p.BindTo(cb, vk.PipelineBindPointGraphics)
}

// BindTo binds the pipeline at bindPoint. Nothing happens without
// a command buffer or a pipeline.
func (p *Pipeline) BindTo(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint) {
	if p == nil || cb == nil || p.pipeline == nil {
		return
	}
	p.driver.CmdBindPipeline(cb, bindPoint, p.pipeline)
}

// Destroy destroys the pipeline, then its layout
func (p *Pipeline) Destroy() {
	if p == nil {
		return
	}
	if p.pipeline != nil {
		p.driver.DestroyPipeline(p.device, p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		p.driver.DestroyPipelineLayout(p.device, p.layout)
		p.layout = nil
	}
}

var _ core.Destroyable = (*Pipeline)(nil)
