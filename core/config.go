// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Instance  InstanceConfiguration
	Device    DeviceConfiguration
	Swapchain SwapchainConfiguration
	Time      TimeConfiguration
	Log       LogConfiguration
	Shader    ShaderConfiguration
}

// InstanceConfiguration is used to create the API instance
type InstanceConfiguration struct {
	// Validation enables validation layers, they are checked
	// for availability before the instance is created
	Validation bool

	Extensions []string
	Layers     []string
}

// DeviceConfiguration is used to pick and open the physical device
type DeviceConfiguration struct {
	// Extensions that every candidate has to support.
	// VK_KHR_swapchain is always required.
	Extensions []string

	// Layers are mirrored onto the logical device for older loaders
	Layers []string

	// RequireCompute makes a compute capable queue family mandatory
	RequireCompute bool
}

// SwapchainConfiguration is used to configure the swapchain
type SwapchainConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay in milliseconds between event polls
	EventPollDelay int
}

// LogConfiguration sets up the logger
type LogConfiguration struct {
	Level  string
	Format string
}

// ShaderConfiguration points to the shader tooling
type ShaderConfiguration struct {
	// Compiler is the path or name of the glslc executable
	Compiler string

	// Pack is a compiled shader archive, empty means
	// that shaders are compiled at startup
	Pack string
}

// Environment variable names understood by LoadConfiguration
const (
	EnvWidth          = "XEN_WIDTH"
	EnvHeight         = "XEN_HEIGHT"
	EnvValidation     = "XEN_VALIDATION"
	EnvRequireCompute = "XEN_REQUIRE_COMPUTE"
	EnvFramesPerSec   = "XEN_FPS"
	EnvEventPollDelay = "XEN_EVENT_POLL_DELAY"
	EnvLogLevel       = "XEN_LOG_LEVEL"
	EnvLogFormat      = "XEN_LOG_FORMAT"
	EnvCompiler       = "XEN_GLSLC"
	EnvShaderPack     = "XEN_SHADER_PACK"
	EnvLayers         = "XEN_LAYERS"
)

// DefaultValidationLayer is enabled when validation is requested
// and no layers are given explicitly
const DefaultValidationLayer = "VK_LAYER_KHRONOS_validation"

// DefaultConfiguration returns the configuration used when nothing is set
func DefaultConfiguration() Configuration {
	return Configuration{
		Swapchain: SwapchainConfiguration{
			ScreenWidth:  800,
			ScreenHeight: 600,
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
		Shader: ShaderConfiguration{
			Compiler: "glslc",
		},
	}
}

// LoadConfiguration reads the given .env files, when they exist,
// and builds the configuration from the environment on top of defaults.
func LoadConfiguration(files ...string) (Configuration, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Configuration{}, errors.Wrap(err, "godotenv.Load()")
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration()

	var err error
	if cfg.Swapchain.ScreenWidth, err = envUint32(EnvWidth, cfg.Swapchain.ScreenWidth); err != nil {
		return Configuration{}, err
	}
	if cfg.Swapchain.ScreenHeight, err = envUint32(EnvHeight, cfg.Swapchain.ScreenHeight); err != nil {
		return Configuration{}, err
	}
	if cfg.Instance.Validation, err = envBool(EnvValidation, false); err != nil {
		return Configuration{}, err
	}
	if cfg.Device.RequireCompute, err = envBool(EnvRequireCompute, false); err != nil {
		return Configuration{}, err
	}
	if cfg.Time.FramesPerSecond, err = envInt(EnvFramesPerSec, cfg.Time.FramesPerSecond); err != nil {
		return Configuration{}, err
	}
	if cfg.Time.EventPollDelay, err = envInt(EnvEventPollDelay, cfg.Time.EventPollDelay); err != nil {
		return Configuration{}, err
	}

	cfg.Log.Level = envy.Get(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = envy.Get(EnvLogFormat, cfg.Log.Format)
	cfg.Shader.Compiler = envy.Get(EnvCompiler, cfg.Shader.Compiler)
	cfg.Shader.Pack = envy.Get(EnvShaderPack, cfg.Shader.Pack)

	if layers := envy.Get(EnvLayers, ""); layers != "" {
		cfg.Instance.Layers = splitList(layers)
	} else if cfg.Instance.Validation {
		cfg.Instance.Layers = []string{DefaultValidationLayer}
	}
	if cfg.Instance.Validation {
		cfg.Device.Layers = cfg.Instance.Layers
	}

	return cfg, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "config %s", key)
	}
	return uint32(v), nil
}

func envInt(key string, def int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "config %s", key)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "config %s", key)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
