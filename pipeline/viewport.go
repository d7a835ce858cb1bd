// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	vk "github.com/vulkan-go/vulkan"
)

// Viewport is how a pipeline gets its viewport and scissor, either
// baked in as a StaticViewport or supplied per frame as a DynamicViewport.
// A nil Viewport is unresolved and cannot be built.
type Viewport interface {
	state() vk.PipelineViewportStateCreateInfo
	dynamic() bool
}

// StaticViewport bakes exactly one viewport and one scissor into the pipeline
type StaticViewport struct {
	Viewport vk.Viewport
	Scissor  vk.Rect2D
}

func (s StaticViewport) state() vk.PipelineViewportStateCreateInfo {
	return vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{s.Viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{s.Scissor},
	}
}

func (StaticViewport) dynamic() bool { return false }

// DynamicViewport leaves Count viewports and scissors to command buffer recording
type DynamicViewport struct {
	Count uint32
}

func (d DynamicViewport) state() vk.PipelineViewportStateCreateInfo {
	return vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: d.Count,
		ScissorCount:  d.Count,
	}
}

func (DynamicViewport) dynamic() bool { return true }

// FullViewport covers extent with depth range 0..1, with a matching scissor
func FullViewport(extent vk.Extent2D) StaticViewport {
	return StaticViewport{
		Viewport: vk.Viewport{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		},
		Scissor: vk.Rect2D{
			Extent: extent,
		},
	}
}
