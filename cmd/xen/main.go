// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"runtime"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/xlab/closer"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/device"
	"github.com/devblok/xen/pipeline"
	"github.com/devblok/xen/swapchain"
)

func init() {
	runtime.LockOSThread()
	ShaderSources = packr.NewBox("./shaders")
}

// ShaderSources are compiled at startup when no shader pack is configured
var ShaderSources packr.Box

var envFile = flag.String("env", "", "Load configuration from the given .env file")

func fatal(err error, msg string) {
	log.WithError(err).Error(msg)
	closer.Exit(1)
}

func main() {
	flag.Parse()
	defer closer.Close()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		fatal(err, "failed to load configuration")
	}
	if err := core.ConfigureLogging(configuration.Log); err != nil {
		fatal(err, "failed to configure logging")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		fatal(err, "sdl.Init()")
	}
	closer.Bind(sdl.Quit)

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		fatal(err, "sdl.VulkanLoadLibrary()")
	}
	closer.Bind(sdl.VulkanUnloadLibrary)

	window, err := newWindow(configuration.Swapchain)
	if err != nil {
		fatal(err, "failed to create window")
	}
	closer.Bind(func() {
		window.Destroy()
	})

	configuration.Instance.Extensions = append(window.VulkanGetInstanceExtensions(), configuration.Instance.Extensions...)
	instance, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), configuration.Instance)
	if err != nil {
		fatal(err, "failed to create vulkan instance")
	}
	closer.Bind(instance.Destroy)

	surface, err := window.VulkanCreateSurface(instance.Instance())
	if err != nil {
		fatal(err, "window.VulkanCreateSurface()")
	}
	instance.SetSurface(surface)

	deviceDriver := device.NewVulkanDriver(instance)
	best, err := device.NewSelector(deviceDriver, instance.Surface(), configuration.Device).Select()
	if err != nil {
		fatal(err, "no usable graphics device")
	}

	logicalDevice, err := device.CreateLogicalDevice(deviceDriver, best.Device, best.Indices, configuration.Device)
	if err != nil {
		fatal(err, "failed to create logical device")
	}
	closer.Bind(logicalDevice.Destroy)

	configuration.Swapchain.ScreenWidth, configuration.Swapchain.ScreenHeight = drawableSize(window)
	swap, err := swapchain.New(swapchain.VulkanDriver{}, logicalDevice, instance.Surface(), configuration.Swapchain)
	if err != nil {
		fatal(err, "failed to create swapchain")
	}
	closer.Bind(swap.Destroy)

	pipelineDriver := pipeline.VulkanDriver{}
	renderPass, err := pipeline.NewRenderPass(pipelineDriver, logicalDevice.Handle(), swap.Format().Format)
	if err != nil {
		fatal(err, "failed to create render pass")
	}
	closer.Bind(renderPass.Destroy)

	cache, err := pipeline.NewCache(pipelineDriver, logicalDevice.Handle())
	if err != nil {
		fatal(err, "failed to create pipeline cache")
	}
	closer.Bind(cache.Destroy)

	compiled, err := loadShaders(configuration.Shader)
	if err != nil {
		fatal(err, "failed to load shaders")
	}

	graphics, err := buildPipeline(logicalDevice.Handle(), renderPass, cache, compiled)
	if err != nil {
		fatal(err, "failed to build pipeline")
	}
	closer.Bind(graphics.Destroy)

	closer.Bind(func() {
		if err := logicalDevice.WaitIdle(); err != nil {
			log.WithError(err).Warn("device did not go idle")
		}
	})

	time := core.NewTime(configuration.Time)
	closer.Bind(time.Stop)

	exitC := make(chan struct{}, 2)

EventLoop:
	for {
		select {
		case <-exitC:
			log.Info("event loop exited")
			break EventLoop
		case <-time.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						exitC <- struct{}{}
						continue EventLoop
					}
				case *sdl.WindowEvent:
					if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
						if err := resize(window, logicalDevice, swap); err != nil {
							fatal(err, "failed to recreate swapchain")
						}
					}
				case *sdl.QuitEvent:
					exitC <- struct{}{}
					continue EventLoop
				}
			}
		}
	}
}
