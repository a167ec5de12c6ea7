package pkg

import (
	"testing"
	"time"
)

func TestNATSStreamConfigDefaults(t *testing.T) {
	cfg := NATSStreamConfig{
		URL:          "nats://localhost:4222",
		StreamName:   "TENANT_ORDERS",
		Topic:        "tenant.orders",
		ConsumerName: "expedite-orders",
	}
	cfg.applyDefaults()

	if cfg.MaxAge != defaultReplayWindow {
		t.Errorf("MaxAge = %v, want %v", cfg.MaxAge, defaultReplayWindow)
	}
}

func TestNATSStreamConfigKeepsExplicitRetention(t *testing.T) {
	cfg := NATSStreamConfig{MaxAge: time.Hour}
	cfg.applyDefaults()

	if cfg.MaxAge != time.Hour {
		t.Errorf("MaxAge = %v, want %v", cfg.MaxAge, time.Hour)
	}
}
