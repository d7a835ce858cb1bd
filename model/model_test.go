// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/model"
	"github.com/devblok/xen/pipeline"
)

func TestVertexLayout(t *testing.T) {
	c := qt.New(t)

	bindings := model.VertexBindingDescriptions()
	c.Assert(bindings, qt.HasLen, 1)
	c.Assert(bindings[0].Stride, qt.Equals, uint32(28))
	c.Assert(bindings[0].InputRate, qt.Equals, vk.VertexInputRateVertex)

	attributes := model.VertexAttributeDescriptions()
	c.Assert(attributes, qt.HasLen, 2)
	c.Assert(attributes[0].Offset, qt.Equals, uint32(0))
	c.Assert(attributes[0].Format, qt.Equals, vk.FormatR32g32b32Sfloat)
	c.Assert(attributes[1].Location, qt.Equals, uint32(1))
	c.Assert(attributes[1].Offset, qt.Equals, uint32(12))
}

func TestPushConstantRange(t *testing.T) {
	c := qt.New(t)

	r := model.PushConstantRange()
	c.Assert(r.Size, qt.Equals, uint32(3*16*4))
	c.Assert(r.Offset, qt.Equals, uint32(0))
	c.Assert(r.StageFlags, qt.Equals, vk.ShaderStageFlags(vk.ShaderStageVertexBit))
}

func TestSetVertexInput(t *testing.T) {
	c := qt.New(t)

	b := model.SetVertexInput(pipeline.NewBuilder())
	info := b.CreateInfo().PVertexInputState
	c.Assert(info.VertexBindingDescriptionCount, qt.Equals, uint32(1))
	c.Assert(info.VertexAttributeDescriptionCount, qt.Equals, uint32(2))
}

func TestNewUniform(t *testing.T) {
	c := qt.New(t)

	u := model.NewUniform(glm.Vec3{2, 2, 2}, vk.Extent2D{Width: 800, Height: 600})
	c.Assert(u.Model, qt.Equals, glm.Ident4())
	c.Assert(u.Projection[5] < 0, qt.IsTrue)

	// the origin lands in the middle of the screen
	origin := u.MVP().Mul4x1(glm.Vec4{0, 0, 0, 1})
	c.Assert(glm.Abs(origin.X()/origin.W()) < 1e-5, qt.IsTrue)
	c.Assert(glm.Abs(origin.Y()/origin.W()) < 1e-5, qt.IsTrue)

	square := model.NewUniform(glm.Vec3{2, 2, 2}, vk.Extent2D{})
	c.Assert(square.Projection[0], qt.Equals, -square.Projection[5])
}
