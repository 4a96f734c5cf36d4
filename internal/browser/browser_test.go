// internal/browser/browser_test.go
package browser

import (
	"testing"
	"time"

	"github.com/valpere/KOLMetrics/internal/fetch"
)

// The client must stay a drop-in HTML source for the page fetcher.
var _ fetch.HTMLSource = (*Client)(nil)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Headless {
		t.Error("default config should be headless")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("unexpected default timeout %v", cfg.Timeout)
	}
	if !cfg.DisableImages {
		t.Error("default config should disable image loading")
	}
}

func TestNewClientAppliesTimeoutDefault(t *testing.T) {
	c := NewClient(Config{})
	if c.config.Timeout != 30*time.Second {
		t.Errorf("zero timeout should fall back to default, got %v", c.config.Timeout)
	}
}
