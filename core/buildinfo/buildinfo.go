package buildinfo

// Set at build time, for example:
//
//	go build -ldflags "-X 'github.com/m3rciful/fishbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/fishbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)'" ./cmd/fishbot
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders version and commit for logs and the health endpoint.
func String() string {
	if Commit == "" || Commit == "local" {
		return Version
	}
	return Version + "+" + Commit
}
