package utils

import (
	"fmt"
	"runtime/debug"
)

// tag can be overridden at build time with -ldflags "-X .../internal/utils.tag=vX.Y.Z".
var tag = "v0.1.0"

// Commit is the short VCS revision the binary was built from, "000000" outside a checkout.
var Commit, dirty = vcsRevision(debug.ReadBuildInfo)

// Version denotes the version of the smart-wallet service.
var Version = formatVersion(tag, Commit, dirty)

func vcsRevision(read func() (*debug.BuildInfo, bool)) (string, bool) {
	revision, modified := "000000", false
	info, ok := read()
	if !ok {
		return revision, modified
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return revision, modified
}

func formatVersion(tag, commit string, dirty bool) string {
	if dirty {
		return fmt.Sprintf("%s-%s-dirty", tag, commit)
	}
	return fmt.Sprintf("%s-%s", tag, commit)
}
