package platform

import (
	"errors"
	"testing"
)

func TestNewProvider_UnsupportedPlatform(t *testing.T) {
	// Temporarily clear the provider func to simulate unsupported platform
	orig := NewProviderFunc
	NewProviderFunc = nil
	defer func() { NewProviderFunc = orig }()

	_, err := NewProvider(ProviderOptions{App: "Notion"})
	if err == nil {
		t.Fatal("expected error on unsupported platform")
	}
	if err != ErrUnsupported {
		t.Errorf("expected ErrUnsupported, got: %v", err)
	}
}

func TestNewProvider_PropagatesError(t *testing.T) {
	orig := NewProviderFunc
	defer func() { NewProviderFunc = orig }()

	want := errors.New("app not running")
	NewProviderFunc = func(ProviderOptions) (*Provider, error) { return nil, want }
	if _, err := NewProvider(ProviderOptions{}); !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}
