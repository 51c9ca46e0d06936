package protocol

import (
	"fmt"

	"golang.org/x/mod/semver"
)

const ToolVersion = "v1.0.0"

// IsCompatibleVersion checks if a partition's version is compatible with the
// coordinator's version. Major versions must match; the collective wire
// format only changes on a major bump.
func IsCompatibleVersion(partitionVersion, coordinatorVersion string) (bool, error) {
	if !semver.IsValid(partitionVersion) {
		return false, fmt.Errorf("invalid partition version: %s", partitionVersion)
	}
	if !semver.IsValid(coordinatorVersion) {
		return false, fmt.Errorf("invalid coordinator version: %s", coordinatorVersion)
	}

	return semver.Major(partitionVersion) == semver.Major(coordinatorVersion), nil
}

// GetCompatibilityError returns a user-friendly message for incompatible versions.
func GetCompatibilityError(partitionVersion, coordinatorVersion string) string {
	return fmt.Sprintf(
		"Partition version %s is incompatible with coordinator version %s. Required version: %s.x.x",
		partitionVersion, coordinatorVersion, semver.Major(coordinatorVersion),
	)
}
