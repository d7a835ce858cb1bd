// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

// NewLayout creates a pipeline layout. The layout is meant to be handed
// to Builder.SetPipelineLayout, the built Pipeline then destroys it.
func NewLayout(d Driver, device vk.Device, setLayouts []vk.DescriptorSetLayout, pushConstants []vk.PushConstantRange) (vk.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushConstants)),
		PPushConstantRanges:    pushConstants,
	}
	return d.CreatePipelineLayout(device, &plci)
}

// NewRenderPass creates a single subpass render pass drawing into one
// color attachment of format, cleared on load and left ready to present.
func NewRenderPass(d Driver, device vk.Device, format vk.Format) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorAttachmentRef)),
			PColorAttachments:    colorAttachmentRef,
		}},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	handle, err := d.CreateRenderPass(device, &rpci)
	if err != nil {
		return nil, err
	}
	return &RenderPass{driver: d, device: device, handle: handle}, nil
}

// RenderPass owns a vk.RenderPass
type RenderPass struct {
	driver Driver
	device vk.Device
	handle vk.RenderPass
}

// Handle returns the vk.RenderPass
func (r *RenderPass) Handle() vk.RenderPass {
	return r.handle
}

// Destroy implements core.Destroyable
func (r *RenderPass) Destroy() {
	if r.handle == nil {
		return
	}
	r.driver.DestroyRenderPass(r.device, r.handle)
	r.handle = nil
}

// NewCache creates an empty pipeline cache
func NewCache(d Driver, device vk.Device) (*Cache, error) {
	handle, err := d.CreatePipelineCache(device, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{driver: d, device: device, handle: handle}, nil
}

// Cache owns a vk.PipelineCache shared by builds on one device
type Cache struct {
	driver Driver
	device vk.Device
	handle vk.PipelineCache
}

// Handle returns the vk.PipelineCache
func (c *Cache) Handle() vk.PipelineCache {
	return c.handle
}

// Destroy implements core.Destroyable
func (c *Cache) Destroy() {
	if c.handle == nil {
		return
	}
	c.driver.DestroyPipelineCache(c.device, c.handle)
	c.handle = nil
}

var (
	_ core.Destroyable = (*RenderPass)(nil)
	_ core.Destroyable = (*Cache)(nil)
)
