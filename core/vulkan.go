// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// package errors
var (
	ErrLayerNotPresent     = errors.New("requested layer is not present")
	ErrExtensionNotPresent = errors.New("requested instance extension is not present")
)

// DefaultVulkanApplicationInfo application info describes a Vulkan application
var DefaultVulkanApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	EngineVersion:      vk.MakeVersion(0, 0, 1),
	PApplicationName:   "Xen Engine\x00",
	PEngineName:        "Xen\x00",
}

// NewVulkanInstance creates a Vulkan instance. procAddr is the loader
// entry point provided by the windowing library, nil loads the default one.
func NewVulkanInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (*VulkanInstance, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	layers := cfg.Layers
	if !cfg.Validation {
		layers = nil
	}
	if err := checkInstanceLayers(layers); err != nil {
		return nil, err
	}
	if err := checkInstanceExtensions(cfg.Extensions); err != nil {
		return nil, err
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: SafeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     SafeStrings(layers),
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateInstance()")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.Wrap(err, "vk.InitInstance()")
	}

	log.WithFields(log.Fields{
		"extensions": cfg.Extensions,
		"layers":     layers,
	}).Debug("vulkan instance created")

	return &VulkanInstance{
		extensions: cfg.Extensions,
		layers:     layers,
		instance:   instance,
	}, nil
}

// VulkanInstance owns the Vulkan API instance and the presentation
// surface created for it. It's the root of every other native object.
type VulkanInstance struct {
	extensions []string
	layers     []string

	surface  vk.Surface
	instance vk.Instance
}

var _ Instance = (*VulkanInstance)(nil)

// PhysicalDevices implements interface
func (v *VulkanInstance) PhysicalDevices() ([]vk.PhysicalDevice, error) {
	return Enumerate("vk.EnumeratePhysicalDevices", func(count *uint32, out []vk.PhysicalDevice) vk.Result {
		return vk.EnumeratePhysicalDevices(v.instance, count, out)
	})
}

// SetSurface implements interface
func (v *VulkanInstance) SetSurface(pSurface unsafe.Pointer) {
	v.surface = vk.SurfaceFromPointer(uintptr(pSurface))
}

// Surface implements interface
func (v *VulkanInstance) Surface() vk.Surface {
	if v.surface == nil {
		return vk.NullSurface
	}
	return v.surface
}

// Instance implements interface
func (v *VulkanInstance) Instance() vk.Instance {
	return v.instance
}

// Extensions implements interface
func (v *VulkanInstance) Extensions() []string {
	return v.extensions
}

// Layers implements interface
func (v *VulkanInstance) Layers() []string {
	return v.layers
}

// Destroy destroys the surface and then the instance
func (v *VulkanInstance) Destroy() {
	if v.instance == nil {
		return
	}
	if v.surface != nil && v.surface != vk.NullSurface {
		vk.DestroySurface(v.instance, v.surface, nil)
		v.surface = nil
	}
	vk.DestroyInstance(v.instance, nil)
	v.instance = nil
}

func checkInstanceLayers(required []string) error {
	if len(required) == 0 {
		return nil
	}
	props, err := Enumerate("vk.EnumerateInstanceLayerProperties", func(count *uint32, out []vk.LayerProperties) vk.Result {
		return vk.EnumerateInstanceLayerProperties(count, out)
	})
	if err != nil {
		return err
	}

	available := make([]string, 0, len(props))
	for _, p := range props {
		p.Deref()
		available = append(available, vk.ToString(p.LayerName[:]))
	}
	if missing := Missing(required, available); len(missing) > 0 {
		return errors.Wrapf(ErrLayerNotPresent, "%v", missing)
	}
	return nil
}

func checkInstanceExtensions(required []string) error {
	if len(required) == 0 {
		return nil
	}
	props, err := Enumerate("vk.EnumerateInstanceExtensionProperties", func(count *uint32, out []vk.ExtensionProperties) vk.Result {
		return vk.EnumerateInstanceExtensionProperties("", count, out)
	})
	if err != nil {
		return err
	}

	available := make([]string, 0, len(props))
	for _, p := range props {
		p.Deref()
		available = append(available, vk.ToString(p.ExtensionName[:]))
	}
	if missing := Missing(required, available); len(missing) > 0 {
		return errors.Wrapf(ErrExtensionNotPresent, "%v", missing)
	}
	return nil
}

// Missing returns the names in required that are not in available.
// Names are compared without their C terminator.
func Missing(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, a := range available {
		have[TrimString(a)] = struct{}{}
	}

	var missing []string
	for _, r := range required {
		if _, ok := have[TrimString(r)]; !ok {
			missing = append(missing, TrimString(r))
		}
	}
	return missing
}
