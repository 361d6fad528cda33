package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Tree          Tree
	Inputter      Inputter
	Screenshotter Screenshotter
}

// ProviderOptions selects the application the provider attaches to.
type ProviderOptions struct {
	App      string // Application name, e.g. "Notion"
	BundleID string // Bundle identifier, tried before App
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("desktop-extract is not supported on %s/%s; supported: darwin/amd64, darwin/arm64", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/darwin/init.go for the macOS registration.
var NewProviderFunc func(opts ProviderOptions) (*Provider, error)

// NewProvider returns a Provider for the current OS. Every mutating call on
// the returned provider is serialized.
func NewProvider(opts ProviderOptions) (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	p, err := NewProviderFunc(opts)
	if err != nil {
		return nil, err
	}
	return Serialize(p), nil
}
