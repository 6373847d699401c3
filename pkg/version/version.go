package version

// Version is the gsuggest release. Overridden at build time with
// -ldflags "-X github.com/rubiojr/gsuggest/pkg/version.Version=...".
var Version = "0.4.0"

// Commit is the VCS revision, when known.
var Commit = ""

// BuildVersion returns the version string for display.
func BuildVersion() string {
	if Commit != "" {
		return "gsuggest version " + Version + " (" + Commit + ")"
	}
	return "gsuggest version " + Version
}

// APIVersion returns just the version number for API responses.
func APIVersion() string {
	return Version
}
