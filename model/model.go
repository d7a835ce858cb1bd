// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model defines the vertex and uniform layouts pipelines are built for
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/pipeline"
)

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// Uniform defines a model-view-projection object,
// pushed to the vertex stage as push constants
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// NewUniform places the camera at eye looking at the origin with
// a 45 degree vertical field of view for the given extent
func NewUniform(eye glm.Vec3, extent vk.Extent2D) Uniform {
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	projection := glm.Perspective(glm.DegToRad(45), aspect, 0.1, 100)
	// Vulkan clip space has Y pointing down
	projection[5] *= -1

	return Uniform{
		Model:      glm.Ident4(),
		View:       glm.LookAtV(eye, glm.Vec3{}, glm.Vec3{0, 0, 1}),
		Projection: projection,
	}
}

// MVP is the combined transform
func (u Uniform) MVP() glm.Mat4 {
	return u.Projection.Mul4(u.View).Mul4(u.Model)
}

// PushConstantRange covers a whole Uniform in the vertex stage
func PushConstantRange() vk.PushConstantRange {
	return vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Offset:     0,
		Size:       uint32(unsafe.Sizeof(Uniform{})),
	}
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// SetVertexInput configures b for Vertex buffers
func SetVertexInput(b *pipeline.Builder) *pipeline.Builder {
	return b.SetVertexInput(VertexBindingDescriptions(), VertexAttributeDescriptions())
}
