package version

import "testing"

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "v1.2.3"
	if got := GetVersion(); got != "v1.2.3" {
		t.Errorf("GetVersion() = %q, want %q", got, "v1.2.3")
	}
}
