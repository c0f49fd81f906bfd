package xcode

import "strings"

// fileTypes maps a file extension to the lastKnownFileType Xcode assigns.
var fileTypes = map[string]string{
	"a":                "archive.ar",
	"app":              "wrapper.application",
	"appex":            "wrapper.app-extension",
	"bundle":           "wrapper.plug-in",
	"c":                "sourcecode.c.c",
	"cc":               "sourcecode.cpp.cpp",
	"cpp":              "sourcecode.cpp.cpp",
	"css":              "text.css",
	"cxx":              "sourcecode.cpp.cpp",
	"dylib":            "compiled.mach-o.dylib",
	"entitlements":     "text.plist.entitlements",
	"framework":        "wrapper.framework",
	"gif":              "image.gif",
	"gpx":              "text.xml",
	"h":                "sourcecode.c.h",
	"hh":               "sourcecode.cpp.h",
	"hpp":              "sourcecode.cpp.h",
	"html":             "text.html",
	"icns":             "image.icns",
	"intentdefinition": "file.intentdefinition",
	"jpeg":             "image.jpeg",
	"jpg":              "image.jpeg",
	"js":               "sourcecode.javascript",
	"json":             "text.json",
	"m":                "sourcecode.c.objc",
	"md":               "net.daringfireball.markdown",
	"metal":            "sourcecode.metal",
	"mlmodel":          "file.mlmodel",
	"mm":               "sourcecode.cpp.objcpp",
	"modulemap":        "sourcecode.module-map",
	"pch":              "sourcecode.c.h",
	"pdf":              "image.pdf",
	"plist":            "text.plist.xml",
	"png":              "image.png",
	"py":               "text.script.python",
	"rb":               "text.script.ruby",
	"sh":               "text.script.sh",
	"storyboard":       "file.storyboard",
	"strings":          "text.plist.strings",
	"stringsdict":      "text.plist.stringsdict",
	"swift":            "sourcecode.swift",
	"tbd":              "sourcecode.text-based-dylib-definition",
	"ttf":              "file",
	"txt":              "text",
	"xcassets":         "folder.assetcatalog",
	"xcconfig":         "text.xcconfig",
	"xcdatamodel":      "wrapper.xcdatamodel",
	"xcdatamodeld":     "wrapper.xcdatamodeld",
	"xcframework":      "wrapper.xcframework",
	"xcodeproj":        "wrapper.pb-project",
	"xcprivacy":        "text.xml",
	"xcstrings":        "text.json.xcstrings",
	"xctest":           "wrapper.cfbundle",
	"xcworkspace":      "wrapper.workspace",
	"xib":              "file.xib",
	"xml":              "text.xml",
	"yaml":             "text.yaml",
	"yml":              "text.yaml",
	"zip":              "archive.zip",
}

// FileType returns Xcode's file type for an extension, with or without the
// leading dot.
func FileType(ext string) (string, bool) {
	t, ok := fileTypes[strings.TrimPrefix(ext, ".")]
	return t, ok
}

// IsSourceType reports whether an Xcode file type is compiled source.
func IsSourceType(fileType string) bool {
	return strings.HasPrefix(fileType, "sourcecode.") && fileType != "sourcecode.text-based-dylib-definition" &&
		fileType != "sourcecode.module-map" && !strings.HasSuffix(fileType, ".h")
}
