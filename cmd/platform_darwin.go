//go:build darwin

package cmd

import _ "github.com/mj1618/desktop-extract/internal/platform/darwin"
