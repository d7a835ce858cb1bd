// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pipeline assembles fixed function state and shader stages into
// graphics pipelines.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

// package errors
var (
	ErrInvalidConfiguration = errors.New("invalid pipeline configuration")
	ErrBuilderConsumed      = errors.New("pipeline builder already built, reset it first")
)

// DefaultEntryPoint is the shader entry point used when none is given
const DefaultEntryPoint = "main"

// Builder accumulates the state of one graphics pipeline. Setters can
// be called in any order, calling one twice keeps the last values.
// A successful Build hands the pipeline layout over to the Pipeline, after
// that the builder must be Reset before it can build again.
type Builder struct {
	stages []vk.PipelineShaderStageCreateInfo

	bindings   []vk.VertexInputBindingDescription
	attributes []vk.VertexInputAttributeDescription

	topology         vk.PrimitiveTopology
	primitiveRestart bool

	viewport      Viewport
	dynamicStates []vk.DynamicState

	rasterizer    vk.PipelineRasterizationStateCreateInfo
	multisampling vk.PipelineMultisampleStateCreateInfo
	depthStencil  vk.PipelineDepthStencilStateCreateInfo

	blendAttachments []vk.PipelineColorBlendAttachmentState

	layout     vk.PipelineLayout
	renderPass vk.RenderPass
	subpass    uint32
	cache      vk.PipelineCache

	built bool
}

// NewBuilder returns a builder holding the defaults
func NewBuilder() *Builder {
	b := &Builder{}
	b.Reset()
	return b
}

// Reset returns the builder to its defaults: a triangle list, filled
// polygons with back faces culled and clockwise front faces, one sample,
// depth and stencil tests off, no blend attachments, no dynamic state,
// and no layout, render pass or shader stages.
func (b *Builder) Reset() {
	*b = Builder{
		topology: vk.PrimitiveTopologyTriangleList,
		rasterizer: vk.PipelineRasterizationStateCreateInfo{
			SType:            vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable: vk.False,
			PolygonMode:      vk.PolygonModeFill,
			CullMode:         vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:        vk.FrontFaceClockwise,
			DepthBiasEnable:  vk.False,
			LineWidth:        1.0,
		},
		multisampling: vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
			MinSampleShading:     1.0,
		},
		depthStencil: depthStencilState(false, false, vk.CompareOpLess),
	}
}

func depthStencilState(test, write bool, op vk.CompareOp) vk.PipelineDepthStencilStateCreateInfo {
	return vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       core.Bool32(test),
		DepthWriteEnable:      core.Bool32(write),
		DepthCompareOp:        op,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}
}

// AddShaderStage records a compiled module for stage, entered at entry
func (b *Builder) AddShaderStage(stage vk.ShaderStageFlagBits, module vk.ShaderModule, entry string) *Builder {
	if entry == "" {
		entry = DefaultEntryPoint
	}
	b.stages = append(b.stages, vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  core.SafeString(entry),
	})
	return b
}

// SetVertexInput sets the vertex buffer layout, empty slices mean no vertex buffers
func (b *Builder) SetVertexInput(bindings []vk.VertexInputBindingDescription, attributes []vk.VertexInputAttributeDescription) *Builder {
	b.bindings = append([]vk.VertexInputBindingDescription(nil), bindings...)
	b.attributes = append([]vk.VertexInputAttributeDescription(nil), attributes...)
	return b
}

// SetInputAssembly sets the primitive topology
func (b *Builder) SetInputAssembly(topology vk.PrimitiveTopology, primitiveRestart bool) *Builder {
	b.topology = topology
	b.primitiveRestart = primitiveRestart
	return b
}

// SetViewport bakes one viewport and scissor into the pipeline and
// drops viewport and scissor from the dynamic states.
func (b *Builder) SetViewport(viewport vk.Viewport, scissor vk.Rect2D) *Builder {
	b.viewport = StaticViewport{Viewport: viewport, Scissor: scissor}

	var kept []vk.DynamicState
	for _, s := range b.dynamicStates {
		if s != vk.DynamicStateViewport && s != vk.DynamicStateScissor {
			kept = append(kept, s)
		}
	}
	b.dynamicStates = kept
	return b
}

// SetDynamicViewportAndScissor leaves count viewports and scissors to
// command buffer recording. Validate rejects a count of 0.
func (b *Builder) SetDynamicViewportAndScissor(count uint32) *Builder {
	b.viewport = DynamicViewport{Count: count}
	b.addDynamicState(vk.DynamicStateViewport)
	b.addDynamicState(vk.DynamicStateScissor)
	return b
}

func (b *Builder) addDynamicState(state vk.DynamicState) {
	for _, s := range b.dynamicStates {
		if s == state {
			return
		}
	}
	b.dynamicStates = append(b.dynamicStates, state)
}

// SetRasterizer sets how polygons are rasterized
func (b *Builder) SetRasterizer(mode vk.PolygonMode, cull vk.CullModeFlags, front vk.FrontFace, lineWidth float32) *Builder {
	b.rasterizer.PolygonMode = mode
	b.rasterizer.CullMode = cull
	b.rasterizer.FrontFace = front
	b.rasterizer.LineWidth = lineWidth
	return b
}

// SetRasterizerDepthBias toggles depth bias, leaving the rest of the rasterizer alone
func (b *Builder) SetRasterizerDepthBias(enable bool, clamp float32) *Builder {
	b.rasterizer.DepthBiasEnable = core.Bool32(enable)
	b.rasterizer.DepthBiasClamp = clamp
	return b
}

// SetMultisampling sets the sample count. More than one sample turns
// on full sample shading.
func (b *Builder) SetMultisampling(samples vk.SampleCountFlagBits) *Builder {
	b.multisampling.RasterizationSamples = samples
	b.multisampling.SampleShadingEnable = core.Bool32(samples != vk.SampleCount1Bit)
	b.multisampling.MinSampleShading = 1.0
	return b
}

// SetDepthStencil configures the depth test. Stencil and depth
// bounds tests stay off, bounds stay at 0..1.
func (b *Builder) SetDepthStencil(test, write bool, op vk.CompareOp) *Builder {
	b.depthStencil = depthStencilState(test, write, op)
	return b
}

// SetColorBlending stores one blend state per color attachment. With
// enable set every attachment is overwritten with alpha blending:
// color is src*srcAlpha + dst*(1-srcAlpha), alpha is the source alpha,
// all four channels written.
func (b *Builder) SetColorBlending(enable bool, attachments []vk.PipelineColorBlendAttachmentState) *Builder {
	b.blendAttachments = append([]vk.PipelineColorBlendAttachmentState(nil), attachments...)
	if !enable {
		return b
	}
	for i := range b.blendAttachments {
		a := &b.blendAttachments[i]
		a.BlendEnable = vk.True
		a.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		a.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		a.ColorBlendOp = vk.BlendOpAdd
		a.SrcAlphaBlendFactor = vk.BlendFactorOne
		a.DstAlphaBlendFactor = vk.BlendFactorZero
		a.AlphaBlendOp = vk.BlendOpAdd
		a.ColorWriteMask = ColorWriteAll
	}
	return b
}

// ColorWriteAll writes every channel of an attachment
const ColorWriteAll = vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
	vk.ColorComponentBBit | vk.ColorComponentABit)

// SetPipelineLayout sets the layout. A built Pipeline owns it.
func (b *Builder) SetPipelineLayout(layout vk.PipelineLayout) *Builder {
	b.layout = layout
	return b
}

// SetRenderPass sets the render pass and the subpass the pipeline is used in
func (b *Builder) SetRenderPass(renderPass vk.RenderPass, subpass uint32) *Builder {
	b.renderPass = renderPass
	b.subpass = subpass
	return b
}

// SetCache sets the pipeline cache Build compiles through, it stays owned by the caller
func (b *Builder) SetCache(cache vk.PipelineCache) *Builder {
	b.cache = cache
	return b
}

// Viewport returns the viewport state, nil while unresolved
func (b *Builder) Viewport() Viewport {
	return b.viewport
}

// DynamicStates returns a copy of the states left to command buffer recording
func (b *Builder) DynamicStates() []vk.DynamicState {
	return append([]vk.DynamicState(nil), b.dynamicStates...)
}

// Validate tells why the builder cannot build, nil when it can
func (b *Builder) Validate() error {
	switch {
	case b.built:
		return ErrBuilderConsumed
	case b.layout == nil:
		return errors.Wrap(ErrInvalidConfiguration, "pipeline layout is not set")
	case b.renderPass == nil:
		return errors.Wrap(ErrInvalidConfiguration, "render pass is not set")
	case len(b.stages) == 0:
		return errors.Wrap(ErrInvalidConfiguration, "no shader stages")
	case b.viewport == nil:
		return errors.Wrap(ErrInvalidConfiguration, "viewport and scissor are neither static nor dynamic")
	}
	if dynamic, ok := b.viewport.(DynamicViewport); ok && dynamic.Count == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "dynamic viewport count is 0")
	}

	for i, stage := range b.stages {
		if stage.Module == nil {
			return errors.Wrapf(ErrInvalidConfiguration, "shader stage %d has no module", i)
		}
	}
	for _, attribute := range b.attributes {
		if !b.hasBinding(attribute.Binding) {
			return errors.Wrapf(ErrInvalidConfiguration, "vertex attribute %d uses unknown binding %d",
				attribute.Location, attribute.Binding)
		}
	}
	return nil
}

func (b *Builder) hasBinding(binding uint32) bool {
	for _, d := range b.bindings {
		if d.Binding == binding {
			return true
		}
	}
	return false
}

// Valid reports whether Validate passes
func (b *Builder) Valid() bool {
	return b.Validate() == nil
}

// CreateInfo assembles the create info Build submits
func (b *Builder) CreateInfo() vk.GraphicsPipelineCreateInfo {
	var viewportState vk.PipelineViewportStateCreateInfo
	if b.viewport != nil {
		viewportState = b.viewport.state()
	} else {
		viewportState.SType = vk.StructureTypePipelineViewportStateCreateInfo
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(b.stages)),
		PStages:    b.stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(b.bindings)),
			PVertexBindingDescriptions:      b.bindings,
			VertexAttributeDescriptionCount: uint32(len(b.attributes)),
			PVertexAttributeDescriptions:    b.attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               b.topology,
			PrimitiveRestartEnable: core.Bool32(b.primitiveRestart),
		},
		PViewportState:      &viewportState,
		PRasterizationState: &b.rasterizer,
		PMultisampleState:   &b.multisampling,
		PDepthStencilState:  &b.depthStencil,
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: uint32(len(b.blendAttachments)),
			PAttachments:    b.blendAttachments,
		},
		Layout:            b.layout,
		RenderPass:        b.renderPass,
		Subpass:           b.subpass,
		BasePipelineIndex: -1,
	}

	if len(b.dynamicStates) > 0 {
		info.PDynamicState = &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(b.dynamicStates)),
			PDynamicStates:    b.dynamicStates,
		}
	}
	return info
}

// Build validates the state and creates exactly one pipeline on device
func (b *Builder) Build(d Driver, device vk.Device) (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	start := hrtime.Now()
	pipelines, err := d.CreateGraphicsPipelines(device, b.cache, []vk.GraphicsPipelineCreateInfo{b.CreateInfo()})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		id:       uuid.New(),
		driver:   d,
		device:   device,
		pipeline: pipelines[0],
		layout:   b.layout,
	}
	b.layout = nil
	b.built = true

	log.WithFields(log.Fields{
		"id":      p.id,
		"stages":  len(b.stages),
		"dynamic": b.viewport.dynamic(),
		"took":    hrtime.Since(start),
	}).Debug("pipeline built")
	return p, nil
}
