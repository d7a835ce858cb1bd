// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"sort"

	"github.com/cockroachdb/errors"
	units "github.com/docker/go-units"
	"github.com/loov/hrtime"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
)

// Scoring weights
const (
	DiscreteScore   int32 = 10000
	IntegratedScore int32 = 1000

	imageDimensionStep = 4096
	gigabyte           = 1 << 30
)

// Requirements are the mandatory capabilities of a candidate
type Requirements struct {
	// Extensions always contains the swapchain extension
	Extensions     []string
	RequireCompute bool
}

// RequirementsFrom builds Requirements from the device configuration
func RequirementsFrom(cfg core.DeviceConfiguration) Requirements {
	return Requirements{
		Extensions:     RequiredExtensions(cfg.Extensions),
		RequireCompute: cfg.RequireCompute,
	}
}

// RequiredExtensions prepends the swapchain extension to extra,
// dropping duplicates and terminators.
func RequiredExtensions(extra []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range append([]string{vk.KhrSwapchainExtensionName}, extra...) {
		e = core.TrimString(e)
		if _, ok := seen[e]; ok || e == "" {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// EnumerateCandidates lists the physical devices. Having none
// at all means no installed driver supports Vulkan.
func EnumerateCandidates(d Driver) ([]vk.PhysicalDevice, error) {
	devices, err := d.PhysicalDevices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

// FindQueueFamilies walks queue families in index order until graphics
// and present support are both found, possibly on different families.
// Until then a later graphics or present family replaces an earlier one.
// The first compute capable family seen is recorded as well.
func FindQueueFamilies(d Driver, dev vk.PhysicalDevice, surface vk.Surface, requireCompute bool) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, properties := range d.QueueFamilies(dev) {
		index := uint32(i)

		if !indices.IsComplete(false) {
			if properties.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
				indices.Graphics = family(index)
			}

			supported, err := d.SurfaceSupport(dev, index, surface)
			if err != nil {
				return QueueFamilyIndices{}, errors.Wrapf(err, "queue family %d", index)
			}
			if supported {
				indices.Present = family(index)
			}
		}

		if indices.Compute == nil && properties.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			indices.Compute = family(index)
		}

		if indices.IsComplete(requireCompute) {
			break
		}
	}
	return indices, nil
}

// ScoreDevice rates dev for rendering onto surface. A score of 0
// disqualifies the device. Discrete devices get 10000, integrated 1000,
// anything else 0. Missing geometry shaders, incomplete queue families or
// a missing required extension give 0. Otherwise the 2D image limit in
// steps of 4096 and every whole GiB of device local memory are added.
func ScoreDevice(d Driver, dev vk.PhysicalDevice, surface vk.Surface, req Requirements) (int32, QueueFamilyIndices, error) {
	properties := d.Properties(dev)

	var score int32
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		score += DiscreteScore
	case vk.PhysicalDeviceTypeIntegratedGpu:
		score += IntegratedScore
	default:
		return 0, QueueFamilyIndices{}, nil
	}

	if !core.Bool(d.Features(dev).GeometryShader) {
		return 0, QueueFamilyIndices{}, nil
	}

	indices, err := FindQueueFamilies(d, dev, surface, req.RequireCompute)
	if err != nil {
		return 0, QueueFamilyIndices{}, err
	}
	if !indices.IsComplete(req.RequireCompute) {
		return 0, indices, nil
	}

	available, err := d.Extensions(dev)
	if err != nil {
		return 0, indices, err
	}
	if missing := core.Missing(req.Extensions, available); len(missing) > 0 {
		log.WithFields(log.Fields{
			"device":  vk.ToString(properties.DeviceName[:]),
			"missing": missing,
		}).Debug("device lacks required extensions")
		return 0, indices, nil
	}

	score += int32(properties.Limits.MaxImageDimension2D / imageDimensionStep)
	score += int32(totalMemory(d.MemoryProperties(dev), true) / gigabyte)
	return score, indices, nil
}

// SelectBest returns the highest scored candidate. Ties go to the
// candidate enumerated first. Zero scores are never selected.
func SelectBest(candidates []Candidate) (Candidate, error) {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > 0 {
			ranked = append(ranked, c)
		}
	}
	if len(ranked) == 0 {
		return Candidate{}, ErrNoSuitableDevice
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked[0], nil
}

// NewSelector creates a Selector for surface
func NewSelector(d Driver, surface vk.Surface, cfg core.DeviceConfiguration) *Selector {
	return &Selector{
		driver:       d,
		surface:      surface,
		requirements: RequirementsFrom(cfg),
	}
}

// Selector ties enumeration, scoring and selection together
type Selector struct {
	driver       Driver
	surface      vk.Surface
	requirements Requirements
}

// Requirements returns what candidates are checked against
func (s *Selector) Requirements() Requirements {
	return s.requirements
}

// Candidates scores every physical device in enumeration order
func (s *Selector) Candidates() ([]Candidate, error) {
	devices, err := EnumerateCandidates(s.driver)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(devices))
	for _, dev := range devices {
		score, indices, err := ScoreDevice(s.driver, dev, s.surface, s.requirements)
		if err != nil {
			return nil, err
		}
		info := Describe(s.driver, dev)

		log.WithFields(log.Fields{
			"device": info.Name,
			"type":   info.Type,
			"memory": units.BytesSize(float64(info.DeviceLocalMemory)),
			"score":  score,
		}).Debug("scored physical device")

		candidates = append(candidates, Candidate{
			Device:  dev,
			Score:   score,
			Indices: indices,
			Info:    info,
		})
	}
	return candidates, nil
}

// Select picks the best physical device
func (s *Selector) Select() (Candidate, error) {
	start := hrtime.Now()

	candidates, err := s.Candidates()
	if err != nil {
		return Candidate{}, err
	}
	best, err := SelectBest(candidates)
	if err != nil {
		return Candidate{}, errors.Wrapf(err, "%d candidates", len(candidates))
	}

	log.WithFields(log.Fields{
		"device":     best.Info.Name,
		"score":      best.Score,
		"candidates": len(candidates),
		"took":       hrtime.Since(start),
	}).Info("selected physical device")
	return best, nil
}
