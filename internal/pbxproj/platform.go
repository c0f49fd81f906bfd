package pbxproj

import (
	"strings"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
)

// Platform is the Apple platform a target builds for.
type Platform string

const (
	PlatformIOS     Platform = "iOS"
	PlatformMacOS   Platform = "macOS"
	PlatformTVOS    Platform = "tvOS"
	PlatformWatchOS Platform = "watchOS"
	PlatformXROS    Platform = "xrOS"
	PlatformUnknown Platform = "unknown"
)

// PlatformFromSDKRoot maps an SDKROOT value such as "iphoneos".
func PlatformFromSDKRoot(sdkRoot string) Platform {
	switch sdkRoot {
	case "iphoneos":
		return PlatformIOS
	case "macosx":
		return PlatformMacOS
	case "appletvos":
		return PlatformTVOS
	case "watchos":
		return PlatformWatchOS
	case "xros":
		return PlatformXROS
	}
	return PlatformUnknown
}

// PlatformFromSimulatorRuntime maps a runtime identifier such as
// "com.apple.CoreSimulator.SimRuntime.iOS-17-0".
func PlatformFromSimulatorRuntime(id string) Platform {
	name := strings.TrimPrefix(id, "com.apple.CoreSimulator.SimRuntime.")
	name, _, _ = strings.Cut(name, "-")
	switch p := Platform(name); p {
	case PlatformIOS, PlatformMacOS, PlatformTVOS, PlatformWatchOS, PlatformXROS:
		return p
	}
	return PlatformUnknown
}

// TargetInfo summarises how a target builds. SDKRoot is empty when no
// configuration set one; a non-empty SDKRoot with PlatformUnknown is an SDK
// outside the platform table.
type TargetInfo struct {
	Platform       Platform `json:"platform"`
	SDKRoot        string   `json:"sdkroot,omitempty"`
	Configurations []string `json:"configurations"`
}

// TargetSDKRoot finds the SDKROOT for t from its own configurations, falling
// back to the configurations of every project in the table.
func (c *Collection) TargetSDKRoot(t *Target) (string, bool) {
	if root, ok := c.SDKRoot(t.BuildConfigurationList); ok {
		return root, true
	}
	var roots []string
	for _, list := range c.projectConfigurationLists() {
		if root, ok := c.SDKRoot(list); ok {
			roots = append(roots, root)
		}
	}
	roots = dedupAdjacent(roots)
	if len(roots) == 0 {
		return "", false
	}
	return roots[0], true
}

// projectConfigurationLists returns the configuration list of every
// project, without decoding the projects' targets and groups.
func (c *Collection) projectConfigurationLists() []*ConfigurationList {
	var ids []string
	for _, id := range c.ids {
		obj := c.objects[id]
		if obj.Isa() != kind.Project {
			continue
		}
		if list, ok := obj.String("buildConfigurationList"); ok && list != "" {
			ids = append(ids, list)
		}
	}
	return GetVec[ConfigurationList](c, ids)
}

// PlatformFor infers the platform t builds for.
func (c *Collection) PlatformFor(t *Target) Platform {
	root, ok := c.TargetSDKRoot(t)
	if !ok {
		return PlatformUnknown
	}
	return PlatformFromSDKRoot(root)
}

// TargetInfo returns the platform and configuration names of t.
func (c *Collection) TargetInfo(t *Target) TargetInfo {
	info := TargetInfo{Platform: PlatformUnknown, Configurations: t.Configurations()}
	if root, ok := c.TargetSDKRoot(t); ok {
		info.SDKRoot = root
		info.Platform = PlatformFromSDKRoot(root)
	}
	return info
}
