// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"os"
	"runtime"

	units "github.com/docker/go-units"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/device"
)

func init() {
	runtime.LockOSThread()
}

var (
	headless = flag.Bool("headless", false, "Only describe devices, without a surface they can not be scored")
	indent   = flag.Bool("indent", true, "Indent the JSON output")
)

// report is one physical device as printed
type report struct {
	device.PhysicalDeviceInfo

	MemoryHuman            string
	DeviceLocalMemoryHuman string
	Score                  *int32  `json:",omitempty"`
	GraphicsFamily         *uint32 `json:",omitempty"`
	PresentFamily          *uint32 `json:",omitempty"`
	ComputeFamily          *uint32 `json:",omitempty"`
	Selected               bool
}

func newReport(info device.PhysicalDeviceInfo) report {
	return report{
		PhysicalDeviceInfo:     info,
		MemoryHuman:            units.BytesSize(float64(info.Memory)),
		DeviceLocalMemoryHuman: units.BytesSize(float64(info.DeviceLocalMemory)),
	}
}

func main() {
	flag.Parse()

	cfg, err := core.LoadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := core.ConfigureLogging(cfg.Log); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	reports, err := collect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to inspect devices")
	}

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(reports); err != nil {
		log.WithError(err).Fatal("failed to encode report")
	}
}

func collect(cfg core.Configuration) ([]report, error) {
	if *headless {
		instance, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, nil, cfg.Instance)
		if err != nil {
			return nil, err
		}
		defer instance.Destroy()
		return describe(device.NewVulkanDriver(instance))
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	defer sdl.Quit()
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return nil, err
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := sdl.CreateWindow("xencli", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 1, 1, sdl.WINDOW_VULKAN|sdl.WINDOW_HIDDEN)
	if err != nil {
		return nil, err
	}
	defer window.Destroy()

	cfg.Instance.Extensions = append(window.VulkanGetInstanceExtensions(), cfg.Instance.Extensions...)
	instance, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), cfg.Instance)
	if err != nil {
		return nil, err
	}
	defer instance.Destroy()

	surface, err := window.VulkanCreateSurface(instance.Instance())
	if err != nil {
		return nil, err
	}
	instance.SetSurface(surface)

	return score(device.NewSelector(device.NewVulkanDriver(instance), instance.Surface(), cfg.Device))
}

func describe(d device.Driver) ([]report, error) {
	devices, err := device.EnumerateCandidates(d)
	if err != nil {
		return nil, err
	}
	reports := make([]report, 0, len(devices))
	for _, dev := range devices {
		reports = append(reports, newReport(device.Describe(d, dev)))
	}
	return reports, nil
}

func score(s *device.Selector) ([]report, error) {
	candidates, err := s.Candidates()
	if err != nil {
		return nil, err
	}

	var best vk.PhysicalDevice
	if selected, err := device.SelectBest(candidates); err == nil {
		best = selected.Device
	} else {
		log.WithError(err).Warn("no device is usable")
	}

	reports := make([]report, 0, len(candidates))
	for _, c := range candidates {
		c := c
		r := newReport(c.Info)
		r.Score = &c.Score
		r.GraphicsFamily = c.Indices.Graphics
		r.PresentFamily = c.Indices.Present
		r.ComputeFamily = c.Indices.Compute
		r.Selected = best != nil && c.Device == best
		reports = append(reports, r)
	}
	return reports, nil
}
