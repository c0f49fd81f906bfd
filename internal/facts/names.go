package facts

// Canonical fact names. Targets, phases and configurations are scoped by
// project so that two projects with a target called "App" stay distinct.
// Files use their workspace-relative path when it resolves on disk.

func ProjectName(project string) string { return project }

func TargetName(project, target string) string { return project + "/" + target }

func PhaseName(project, target, phase string) string {
	return project + "/" + target + "/" + phase
}

// ConfigurationName names a target configuration, or a project-level one
// when target is empty.
func ConfigurationName(project, target, config string) string {
	if target == "" {
		return project + ":" + config
	}
	return project + "/" + target + ":" + config
}

// GroupName names a group by its navigator path, e.g. "App/Source/Views".
func GroupName(navPath string) string { return "group:" + navPath }

func PackageName(name string) string { return "package:" + name }

func PackageProductName(product string) string { return "product:" + product }

func SchemeName(project, scheme string) string { return "scheme:" + project + "/" + scheme }
