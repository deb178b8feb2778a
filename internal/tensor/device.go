package tensor

import (
	"fmt"
	"strings"
)

// Device represents the compute device a tensor is placed on.
//
// The tag travels with every tensor and layers move inputs onto their
// weights' device before combining them. Host memory is the only physical
// storage; other devices are placement tags.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// ParseDevice converts a config string to a Device. An empty string selects CPU.
func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(s) {
	case "", "cpu":
		return CPU, nil
	case "cuda", "gpu":
		return CUDA, nil
	case "vulkan":
		return Vulkan, nil
	case "metal", "mps":
		return Metal, nil
	case "webgpu":
		return WebGPU, nil
	default:
		return 0, fmt.Errorf("unknown device %q", s)
	}
}
