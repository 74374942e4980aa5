package store

import (
	"github.com/fieldstation/dsengine/internal/events"
	goversion "github.com/hashicorp/go-version"
)

// CheckMinimumVersion compares a robot-reported library version string
// against minSupported. It returns true (and emits version-outdated) only
// when both strings parse as semantic versions and reported is strictly
// older. This check is advisory-only: it never touches enabled, code, or
// any other safety-relevant field, and a malformed version string is
// simply ignored rather than surfaced as an error.
func (c *Config) CheckMinimumVersion(minSupported string) bool {
	reported, err := goversion.NewVersion(c.RobotLibVersion())
	if err != nil {
		return false
	}
	floor, err := goversion.NewVersion(minSupported)
	if err != nil {
		return false
	}
	if reported.LessThan(floor) {
		c.emit(events.KindVersionOutdated, c.RobotLibVersion())
		return true
	}
	return false
}
