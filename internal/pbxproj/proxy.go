package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// ProxyType is the proxyType of a container item proxy.
type ProxyType int64

const (
	ProxyNativeTarget ProxyType = 1
	ProxyReference    ProxyType = 2
)

func (p ProxyType) String() string {
	switch p {
	case ProxyNativeTarget:
		return "native_target"
	case ProxyReference:
		return "reference"
	}
	return "other"
}

// ContainerItemProxy points at an object, possibly in another project.
type ContainerItemProxy struct {
	ID                   string
	ContainerPortal      string
	ProxyType            ProxyType
	RemoteGlobalIDString string
	RemoteInfo           string
}

func (p *ContainerItemProxy) accepts(k kind.Kind) bool { return k == kind.ContainerItemProxy }

func (p *ContainerItemProxy) decode(_ *resolver, id string, obj value.Map) error {
	var err error
	p.ID = id
	if p.ContainerPortal, err = obj.TryString("containerPortal"); err != nil {
		return err
	}
	p.ProxyType = ProxyType(obj.NumberOr("proxyType", 0))
	p.RemoteGlobalIDString = obj.StringOr("remoteGlobalIDString", "")
	p.RemoteInfo = obj.StringOr("remoteInfo", "")
	return nil
}

// TargetDependency makes a target depend on another target or a package
// product.
type TargetDependency struct {
	ID             string
	Name           string
	PlatformFilter string
	Target         *Target
	TargetProxy    *ContainerItemProxy
	ProductRef     *SwiftPackageProductDependency
}

func (d *TargetDependency) accepts(k kind.Kind) bool { return k == kind.TargetDependency }

func (d *TargetDependency) decode(r *resolver, id string, obj value.Map) error {
	d.ID = id
	d.Name = obj.StringOr("name", "")
	d.PlatformFilter = obj.StringOr("platformFilter", "")
	d.Target = ref[Target](r, obj, "target")
	d.TargetProxy = ref[ContainerItemProxy](r, obj, "targetProxy")
	d.ProductRef = ref[SwiftPackageProductDependency](r, obj, "productRef")
	return nil
}

// TargetID returns the id of the target depended on, from the target field
// or else from the proxy's remote id.
func (d *TargetDependency) TargetID() string {
	if d.Target != nil {
		return d.Target.ID
	}
	if d.TargetProxy != nil {
		return d.TargetProxy.RemoteGlobalIDString
	}
	return ""
}
