package model

import "fmt"

// Platform is the operating system a target is built for.
type Platform string

const (
	IOS     Platform = "iOS"
	MacOS   Platform = "macOS"
	TvOS    Platform = "tvOS"
	WatchOS Platform = "watchOS"
)

// Product is the kind of artifact a target produces. The set is closed:
// ParseProduct rejects anything not listed here.
type Product string

const (
	Application          Product = "app"
	Framework            Product = "framework"
	StaticFramework      Product = "staticFramework"
	DynamicLibrary       Product = "dynamicLibrary"
	StaticLibrary        Product = "staticLibrary"
	Bundle               Product = "bundle"
	AppExtension         Product = "appExtension"
	StickerPackExtension Product = "stickerPackExtension"
	Watch2App            Product = "watch2App"
	Watch2Extension      Product = "watch2Extension"
	MessagesExtension    Product = "messagesExtension"
	AppClip              Product = "appClip"
	UnitTests            Product = "unitTests"
	UITests              Product = "uiTests"
)

// Products lists every known product in declaration order.
var Products = []Product{
	Application, Framework, StaticFramework, DynamicLibrary, StaticLibrary,
	Bundle, AppExtension, StickerPackExtension, Watch2App, Watch2Extension,
	MessagesExtension, AppClip, UnitTests, UITests,
}

// ParseProduct validates a product name.
func ParseProduct(s string) (Product, error) {
	for _, p := range Products {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown product %q", s)
}

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case IOS, MacOS, TvOS, WatchOS:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// IsTestBundle reports whether p is a unit or UI test bundle.
func (p Product) IsTestBundle() bool {
	return p == UnitTests || p == UITests
}

// IsStatic reports whether p is linked statically into its consumers.
func (p Product) IsStatic() bool {
	return p == StaticLibrary || p == StaticFramework
}

// IsExtension reports whether p is one of the app extension products.
func (p Product) IsExtension() bool {
	switch p {
	case AppExtension, StickerPackExtension, Watch2Extension, MessagesExtension:
		return true
	}
	return false
}

// SupportsResources reports whether a product of this kind can carry its own
// resources. Libraries and static frameworks cannot; their resources have to
// travel in a separate bundle.
func (p Product) SupportsResources() bool {
	switch p {
	case DynamicLibrary, StaticLibrary, StaticFramework:
		return false
	}
	return true
}

// CanLinkStaticProducts reports whether a product of this kind is a linked
// image that absorbs the static code it depends on.
func (p Product) CanLinkStaticProducts() bool {
	switch p {
	case Application, Framework, DynamicLibrary, AppExtension, StickerPackExtension,
		Watch2Extension, MessagesExtension, AppClip, UnitTests, UITests:
		return true
	}
	return false
}

// CanEmbedProducts reports whether a product of this kind embeds the dynamic
// frameworks beneath it.
func (p Product) CanEmbedProducts() bool {
	switch p {
	case Application, Watch2Extension, UnitTests, UITests:
		return true
	}
	return false
}

// FileExtension is the extension of the built product on disk.
func (p Product) FileExtension() string {
	switch p {
	case Application, Watch2App, AppClip:
		return "app"
	case Framework, StaticFramework:
		return "framework"
	case DynamicLibrary:
		return "dylib"
	case StaticLibrary:
		return "a"
	case Bundle:
		return "bundle"
	case AppExtension, StickerPackExtension, Watch2Extension, MessagesExtension:
		return "appex"
	case UnitTests, UITests:
		return "xctest"
	}
	return ""
}
