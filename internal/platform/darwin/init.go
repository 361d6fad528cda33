//go:build darwin && cgo

package darwin

import "github.com/mj1618/desktop-extract/internal/platform"

func init() {
	platform.NewProviderFunc = func(opts platform.ProviderOptions) (*platform.Provider, error) {
		if err := CheckAccessibilityPermission(); err != nil {
			return nil, err
		}
		tree, err := NewTree(opts.App, opts.BundleID)
		if err != nil {
			return nil, err
		}
		return &platform.Provider{
			Tree:          tree,
			Inputter:      NewInputter(),
			Screenshotter: NewScreenshotter(),
		}, nil
	}
}
