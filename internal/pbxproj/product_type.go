package pbxproj

import "strings"

// ProductType is the com.apple.product-type identifier of a target. Values
// outside the known table are kept as is; ProductTypeNone is the empty type.
type ProductType string

const (
	ProductTypeNone                              ProductType = ""
	ProductTypeApplication                       ProductType = "com.apple.product-type.application"
	ProductTypeFramework                         ProductType = "com.apple.product-type.framework"
	ProductTypeStaticFramework                   ProductType = "com.apple.product-type.framework.static"
	ProductTypeXCFramework                       ProductType = "com.apple.product-type.xcframework"
	ProductTypeDynamicLibrary                    ProductType = "com.apple.product-type.library.dynamic"
	ProductTypeStaticLibrary                     ProductType = "com.apple.product-type.library.static"
	ProductTypeBundle                            ProductType = "com.apple.product-type.bundle"
	ProductTypeUnitTestBundle                    ProductType = "com.apple.product-type.bundle.unit-test"
	ProductTypeUITestBundle                      ProductType = "com.apple.product-type.bundle.ui-testing"
	ProductTypeAppExtension                      ProductType = "com.apple.product-type.app-extension"
	ProductTypeCommandLineTool                   ProductType = "com.apple.product-type.tool"
	ProductTypeWatchApp                          ProductType = "com.apple.product-type.application.watchapp"
	ProductTypeWatch2App                         ProductType = "com.apple.product-type.application.watchapp2"
	ProductTypeWatch2AppContainer                ProductType = "com.apple.product-type.application.watchapp2-container"
	ProductTypeWatchExtension                    ProductType = "com.apple.product-type.watchkit-extension"
	ProductTypeWatch2Extension                   ProductType = "com.apple.product-type.watchkit2-extension"
	ProductTypeTVExtension                       ProductType = "com.apple.product-type.tv-app-extension"
	ProductTypeMessagesApplication               ProductType = "com.apple.product-type.application.messages"
	ProductTypeMessagesExtension                 ProductType = "com.apple.product-type.app-extension.messages"
	ProductTypeStickerPack                       ProductType = "com.apple.product-type.app-extension.messages-sticker-pack"
	ProductTypeXPCService                        ProductType = "com.apple.product-type.xpc-service"
	ProductTypeOCUnitTestBundle                  ProductType = "com.apple.product-type.bundle.ocunit-test"
	ProductTypeXcodeExtension                    ProductType = "com.apple.product-type.xcode-extension"
	ProductTypeInstrumentsPackage                ProductType = "com.apple.product-type.instruments-package"
	ProductTypeIntentsServiceExtension           ProductType = "com.apple.product-type.app-extension.intents-service"
	ProductTypeOnDemandInstallCapableApplication ProductType = "com.apple.product-type.application.on-demand-install-capable"
	ProductTypeMetalLibrary                      ProductType = "com.apple.product-type.metal-library"
	ProductTypeDriverExtension                   ProductType = "com.apple.product-type.driver-extension"
	ProductTypeSystemExtension                   ProductType = "com.apple.product-type.system-extension"
)

var productExtensions = map[ProductType]string{
	ProductTypeApplication:                       "app",
	ProductTypeWatchApp:                          "app",
	ProductTypeWatch2App:                         "app",
	ProductTypeWatch2AppContainer:                "app",
	ProductTypeMessagesApplication:               "app",
	ProductTypeOnDemandInstallCapableApplication: "app",
	ProductTypeAppExtension:                      "appex",
	ProductTypeTVExtension:                       "appex",
	ProductTypeWatchExtension:                    "appex",
	ProductTypeWatch2Extension:                   "appex",
	ProductTypeMessagesExtension:                 "appex",
	ProductTypeStickerPack:                       "appex",
	ProductTypeXcodeExtension:                    "appex",
	ProductTypeIntentsServiceExtension:           "appex",
	ProductTypeFramework:                         "framework",
	ProductTypeStaticFramework:                   "framework",
	ProductTypeUnitTestBundle:                    "xctest",
	ProductTypeUITestBundle:                      "xctest",
	ProductTypeDynamicLibrary:                    "dylib",
	ProductTypeStaticLibrary:                     "a",
	ProductTypeBundle:                            "bundle",
	ProductTypeXPCService:                        "xpc",
	ProductTypeOCUnitTestBundle:                  "octest",
	ProductTypeInstrumentsPackage:                "instrpkg",
	ProductTypeXCFramework:                       "xcframework",
	ProductTypeMetalLibrary:                      "metallib",
	ProductTypeSystemExtension:                   "systemextension",
	ProductTypeDriverExtension:                   "dext",
}

// IsKnown reports whether p is in the product type table.
func (p ProductType) IsKnown() bool {
	if _, ok := productExtensions[p]; ok {
		return true
	}
	return p == ProductTypeCommandLineTool
}

// FileExtension is the extension of the built product, e.g. "app". Command
// line tools and unknown types have none.
func (p ProductType) FileExtension() (string, bool) {
	ext, ok := productExtensions[p]
	return ext, ok
}

// IsTest reports whether the product is a test bundle.
func (p ProductType) IsTest() bool {
	return p == ProductTypeUnitTestBundle || p == ProductTypeUITestBundle || p == ProductTypeOCUnitTestBundle
}

// ShortName is the last component of the identifier, e.g. "application".
func (p ProductType) ShortName() string {
	return strings.TrimPrefix(string(p), "com.apple.product-type.")
}
