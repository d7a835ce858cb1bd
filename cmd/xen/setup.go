// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/device"
	"github.com/devblok/xen/model"
	"github.com/devblok/xen/pipeline"
	"github.com/devblok/xen/shader"
	"github.com/devblok/xen/swapchain"
)

const shaderLoadTimeout = time.Minute

func newWindow(cfg core.SwapchainConfiguration) (*sdl.Window, error) {
	return sdl.CreateWindow("Xen",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
}

func drawableSize(window *sdl.Window) (uint32, uint32) {
	w, h := window.VulkanGetDrawableSize()
	if w < 0 || h < 0 {
		return 0, 0
	}
	return uint32(w), uint32(h)
}

// resize recreates the swapchain for the current drawable size.
// A minimized window has no drawable area and is left alone.
func resize(window *sdl.Window, ld *device.LogicalDevice, swap *swapchain.Swapchain) error {
	w, h := drawableSize(window)
	if w == 0 || h == 0 {
		return nil
	}
	if err := ld.WaitIdle(); err != nil {
		return err
	}

	format := swap.Format().Format
	if err := swap.Recreate(w, h); err != nil {
		return err
	}
	if swap.Format().Format != format {
		log.WithFields(log.Fields{
			"was": format,
			"now": swap.Format().Format,
		}).Warn("swapchain format changed, render pass is stale")
	}
	return nil
}

// loadShaders reads the configured shader pack, or compiles the
// embedded sources when there is none
func loadShaders(cfg core.ShaderConfiguration) ([]shader.Bytecode, error) {
	ctx, cancel := context.WithTimeout(context.Background(), shaderLoadTimeout)
	defer cancel()

	if cfg.Pack != "" {
		pack, err := shader.OpenPack(cfg.Pack)
		if err != nil {
			return nil, err
		}
		defer pack.Close()
		return shader.LoadAll(ctx, pack, pack.Names())
	}

	compiler, err := shader.NewCompiler(cfg)
	if err != nil {
		return nil, err
	}
	defer compiler.Close()
	return shader.CompileBox(ctx, compiler, ShaderSources)
}

// buildPipeline builds the graphics pipeline drawing model vertices.
// Shader modules only live until the pipeline is built.
func buildPipeline(dev vk.Device, renderPass *pipeline.RenderPass, cache *pipeline.Cache, compiled []shader.Bytecode) (*pipeline.Pipeline, error) {
	pipelineDriver := pipeline.VulkanDriver{}

	layout, err := pipeline.NewLayout(pipelineDriver, dev, nil, []vk.PushConstantRange{model.PushConstantRange()})
	if err != nil {
		return nil, err
	}

	builder := pipeline.NewBuilder().
		SetPipelineLayout(layout).
		SetRenderPass(renderPass.Handle(), 0).
		SetCache(cache.Handle()).
		SetDynamicViewportAndScissor(1).
		SetColorBlending(false, []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: pipeline.ColorWriteAll,
		}})
	model.SetVertexInput(builder)

	var modules []*shader.Module
	defer func() {
		for _, m := range modules {
			m.Destroy()
		}
	}()

	for _, bc := range compiled {
		if bc.Stage == shader.StageCompute {
			log.WithField("shader", bc.Name).Debug("skipping compute shader")
			continue
		}
		m, err := shader.NewModule(shader.VulkanDriver{}, dev, bc)
		if err != nil {
			pipelineDriver.DestroyPipelineLayout(dev, layout)
			return nil, errors.Wrapf(err, "shader %s", bc.Name)
		}
		modules = append(modules, m)
		m.Attach(builder)
	}

	p, err := builder.Build(pipelineDriver, dev)
	if err != nil {
		pipelineDriver.DestroyPipelineLayout(dev, layout)
		return nil, err
	}
	return p, nil
}
