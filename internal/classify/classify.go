// Package classify maps filesystem paths to a deletion-risk level by
// substring pattern rules. Critical patterns are checked first, then caution,
// then safe; the first match wins and unknown paths default to caution.
package classify

import (
	"strings"

	"github.com/fenilsonani/storage-intel/internal/model"
)

var criticalPatterns = []string{
	"/System/", "/usr/", "/bin/", "/sbin/", "/private/var/db/",
	"/Library/LaunchDaemons/", "/Library/LaunchAgents/",
	"/System/Library/", "/private/etc/",
}

var cautionPatterns = []string{
	"/Application Support/", "/Containers/", "/Preferences/",
	"/Saved Application State/", "/Homebrew/", "/Docker/",
	"/MobileSync/Backup/", "/Mail Downloads/",
	"/.venv/", "/venv/", "/.virtualenv/",
}

var safePatterns = []string{
	"/Caches/", "/cache/", "/Cache/", "/tmp/", "/Temp/",
	"/.cache/", "/DerivedData/", "/node_modules/", "/.npm/", "/__pycache__/",
	"/target/debug/", "/target/release/", "/.cargo/registry/",
	"/pkg/mod/cache/", "/.Trash/", "/Logs/", "/log/",
	"/Code Cache/", "/Service Worker/", "/GPUCache/",
	"/ShaderCache/", "/GrShaderCache/", "/ScriptCache/",
}

// Risk classifies the deletion risk of path. It is total: every input maps
// to exactly one risk level. The patterns are separator-delimited directory
// names, so matching runs against path with a trailing separator appended:
// a path whose final component is the named directory (~/.npm, a bare
// node_modules) classifies the same as one that merely passes through it.
func Risk(path string) model.Risk {
	p := path + "/"
	for _, pattern := range criticalPatterns {
		if strings.Contains(p, pattern) {
			return model.RiskCritical
		}
	}
	for _, pattern := range cautionPatterns {
		if strings.Contains(p, pattern) {
			return model.RiskCaution
		}
	}
	for _, pattern := range safePatterns {
		if strings.Contains(p, pattern) {
			return model.RiskSafe
		}
	}
	return model.RiskCaution
}
