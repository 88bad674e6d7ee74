package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestInitAndOr(t *testing.T) {
	if err := Init("test"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if L() == nil {
		t.Fatal("L returned nil after Init")
	}
	own := zap.NewNop().Sugar()
	if Or(own) != own {
		t.Fatal("Or ignored the given logger")
	}
	if Or(nil) != L() {
		t.Fatal("Or(nil) should fall back to the global logger")
	}
}
