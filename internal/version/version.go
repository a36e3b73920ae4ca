package version

// Version is the current version of the candle downloader.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/candle-downloader/internal/version.Version=1.2.3"
var Version = "main"

// GetVersion returns the current version.
func GetVersion() string {
	return Version
}
