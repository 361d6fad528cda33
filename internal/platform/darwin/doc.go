//go:build darwin

// Package darwin provides the macOS accessibility tree, input and screen
// capture backends using the Accessibility and CoreGraphics APIs.
// All functionality requires CGo (Objective-C frameworks).
package darwin
