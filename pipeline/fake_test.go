// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline_test

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/pipeline"
)

func newHandle() unsafe.Pointer {
	return unsafe.Pointer(new(int))
}

type bindCall struct {
	CommandBuffer vk.CommandBuffer
	BindPoint     vk.PipelineBindPoint
	Pipeline      vk.Pipeline
}

type fakeDriver struct {
	createErr error

	created      []vk.GraphicsPipelineCreateInfo
	caches       []vk.PipelineCache
	pipelines    []vk.Pipeline
	layouts      []vk.PipelineLayoutCreateInfo
	renderPasses []vk.RenderPassCreateInfo
	binds        []bindCall
	destroyed    []string
}

func (f *fakeDriver) CreateGraphicsPipelines(dev vk.Device, cache vk.PipelineCache, infos []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, infos...)
	f.caches = append(f.caches, cache)

	out := make([]vk.Pipeline, len(infos))
	for i := range out {
		out[i] = vk.Pipeline(newHandle())
	}
	f.pipelines = append(f.pipelines, out...)
	return out, nil
}

func (f *fakeDriver) CmdBindPipeline(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, p vk.Pipeline) {
	f.binds = append(f.binds, bindCall{cb, bindPoint, p})
}

func (f *fakeDriver) DestroyPipeline(vk.Device, vk.Pipeline) {
	f.destroyed = append(f.destroyed, "pipeline")
}

func (f *fakeDriver) CreatePipelineLayout(dev vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	f.layouts = append(f.layouts, *info)
	return vk.PipelineLayout(newHandle()), nil
}

func (f *fakeDriver) DestroyPipelineLayout(vk.Device, vk.PipelineLayout) {
	f.destroyed = append(f.destroyed, "layout")
}

func (f *fakeDriver) CreateRenderPass(dev vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	f.renderPasses = append(f.renderPasses, *info)
	return vk.RenderPass(newHandle()), nil
}

func (f *fakeDriver) DestroyRenderPass(vk.Device, vk.RenderPass) {
	f.destroyed = append(f.destroyed, "render pass")
}

func (f *fakeDriver) CreatePipelineCache(vk.Device, *vk.PipelineCacheCreateInfo) (vk.PipelineCache, error) {
	return vk.PipelineCache(newHandle()), nil
}

func (f *fakeDriver) DestroyPipelineCache(vk.Device, vk.PipelineCache) {
	f.destroyed = append(f.destroyed, "cache")
}

var (
	_ pipeline.Driver = (*fakeDriver)(nil)

	testDevice = vk.Device(newHandle())
)

// configured returns a builder that passes validation
func configured() *pipeline.Builder {
	return pipeline.NewBuilder().
		SetPipelineLayout(vk.PipelineLayout(newHandle())).
		SetRenderPass(vk.RenderPass(newHandle()), 0).
		AddShaderStage(vk.ShaderStageVertexBit, vk.ShaderModule(newHandle()), "main").
		SetDynamicViewportAndScissor(1)
}
