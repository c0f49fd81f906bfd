package pbxproj

import (
	"log"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// BuildConfiguration is a named set of build settings, optionally layered
// on an xcconfig file.
type BuildConfiguration struct {
	ID                  string
	Name                string
	BuildSettings       value.Map
	BaseConfigurationID string
	BaseConfiguration   *FSReference
}

func (b *BuildConfiguration) accepts(k kind.Kind) bool { return k == kind.BuildConfiguration }

func (b *BuildConfiguration) decode(r *resolver, id string, obj value.Map) error {
	var err error
	b.ID = id
	if b.Name, err = obj.TryString("name"); err != nil {
		return err
	}
	if b.BuildSettings, err = obj.TryObject("buildSettings"); err != nil {
		return err
	}
	b.BaseConfigurationID = obj.StringOr("baseConfigurationReference", "")
	b.BaseConfiguration = ref[FSReference](r, obj, "baseConfigurationReference")
	return nil
}

// Setting returns a build setting as a string. Array settings are not
// returned; use BuildSettings directly for those.
func (b *BuildConfiguration) Setting(key string) (string, bool) {
	return b.BuildSettings.String(key)
}

// ConfigurationList groups the configurations of a project or target.
type ConfigurationList struct {
	ID                            string
	BuildConfigurations           []*BuildConfiguration
	DefaultConfigurationIsVisible bool
	DefaultConfigurationName      string
}

func (l *ConfigurationList) accepts(k kind.Kind) bool { return k == kind.ConfigurationList }

func (l *ConfigurationList) decode(r *resolver, id string, obj value.Map) error {
	var err error
	l.ID = id
	if l.BuildConfigurations, err = mustRefs[BuildConfiguration](r, obj, "buildConfigurations"); err != nil {
		return err
	}
	visible, err := obj.TryNumber("defaultConfigurationIsVisible")
	if err != nil {
		return err
	}
	l.DefaultConfigurationIsVisible = visible == 1
	l.DefaultConfigurationName = obj.StringOr("defaultConfigurationName", "")
	return nil
}

// Names returns the configuration names in list order.
func (l *ConfigurationList) Names() []string {
	names := make([]string, 0, len(l.BuildConfigurations))
	for _, c := range l.BuildConfigurations {
		names = append(names, c.Name)
	}
	return names
}

// ByName returns the configuration called name.
func (l *ConfigurationList) ByName(name string) (*BuildConfiguration, bool) {
	for _, c := range l.BuildConfigurations {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// SDKRoot finds the SDKROOT shared by the configurations of list. When none
// of them set it, configurations sharing a base xcconfig with them are
// consulted. Repeats are only collapsed when adjacent, so alternating values
// count as several and the first one wins.
func (c *Collection) SDKRoot(list *ConfigurationList) (string, bool) {
	if list == nil {
		return "", false
	}
	roots := sdkRoots(list.BuildConfigurations)
	if len(roots) == 0 {
		for _, cfg := range list.BuildConfigurations {
			if cfg.BaseConfigurationID == "" {
				continue
			}
			roots = append(roots, sdkRoots(c.BuildConfigurationsByBaseID(cfg.BaseConfigurationID))...)
		}
		roots = dedupAdjacent(roots)
	}
	switch len(roots) {
	case 0:
		return "", false
	case 1:
	default:
		log.Printf("[pbxproj] configuration list %s has %d SDKROOT values %v, using %q", list.ID, len(roots), roots, roots[0])
	}
	return roots[0], true
}

func sdkRoots(configs []*BuildConfiguration) []string {
	var out []string
	for _, cfg := range configs {
		if root, ok := cfg.Setting("SDKROOT"); ok && root != "" {
			out = append(out, root)
		}
	}
	return dedupAdjacent(out)
}

func dedupAdjacent(ss []string) []string {
	if len(ss) < 2 {
		return ss
	}
	out := ss[:1]
	for _, s := range ss[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
