package observer

import (
	"fmt"

	"github.com/bft-labs/pkgwatch/pkg/classify"
	"github.com/bft-labs/pkgwatch/pkg/dispatch"
	"github.com/bft-labs/pkgwatch/pkg/feed"
	"github.com/bft-labs/pkgwatch/pkg/lifecycle"
	"github.com/bft-labs/pkgwatch/pkg/log"
	"github.com/bft-labs/pkgwatch/pkg/state"
)

// Version information for the observer module.
const (
	// Version is the current version of the observer module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

// ModuleVersions returns the versions of the modules an Observer is built from.
func ModuleVersions() map[string]string {
	return map[string]string{
		"observer":  Version,
		"state":     state.Version,
		"classify":  classify.Version,
		"feed":      feed.Version,
		"dispatch":  dispatch.Version,
		"lifecycle": lifecycle.Version,
		"log":       log.Version,
	}
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"state":     {state.Version, state.MinCompatibleVersion},
		"classify":  {classify.Version, classify.MinCompatibleVersion},
		"feed":      {feed.Version, feed.MinCompatibleVersion},
		"dispatch":  {dispatch.Version, dispatch.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
