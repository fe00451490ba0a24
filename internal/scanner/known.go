package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/probe"
)

// chromeCacheSubdirs are the per-profile cache directories of Chromium-based
// browsers.
var chromeCacheSubdirs = []string{
	"Cache", "Code Cache", "GPUCache", "Service Worker",
	"ShaderCache", "GrShaderCache", "ScriptCache",
}

// firefoxCacheSubdirs are the per-profile cache directories of Firefox.
var firefoxCacheSubdirs = []string{"cache2", "startupCache", "thumbnails"}

// ScanBrowserCaches sweeps the six supported browsers, enumerating profiles
// where the browser keeps per-profile caches.
func (s *Scanner) ScanBrowserCaches() []model.Item {
	lib := s.info.LibraryDir
	var items []model.Item

	browsers := []struct {
		name string
		base string
		kind string // "chrome", "firefox" or "safari"
	}{
		{"Chrome", filepath.Join(lib, "Application Support", "Google", "Chrome"), "chrome"},
		{"Chrome Canary", filepath.Join(lib, "Application Support", "Google", "Chrome Canary"), "chrome"},
		{"Firefox", filepath.Join(lib, "Application Support", "Firefox", "Profiles"), "firefox"},
		{"Safari", filepath.Join(lib, "Caches", "com.apple.Safari"), "safari"},
		{"Edge", filepath.Join(lib, "Application Support", "Microsoft Edge"), "chrome"},
		{"Brave", filepath.Join(lib, "Application Support", "BraveSoftware", "Brave-Browser"), "chrome"},
	}

	for _, browser := range browsers {
		if !probe.DirExists(browser.base) || s.excluded(browser.base) {
			continue
		}
		s.tracker.Update(browser.base, 0, 0)

		switch browser.kind {
		case "firefox":
			items = append(items, s.scanFirefoxProfiles(browser.name, browser.base)...)
		case "safari":
			items = append(items, s.scanSafari(browser.name, browser.base)...)
		default:
			items = append(items, s.scanChromeProfiles(browser.name, browser.base)...)
		}
	}

	s.emitFound(model.CategoryBrowserCache, "Browser Caches", items)
	return items
}

// scanChromeProfiles sizes the seven cache subdirectories of every profile.
func (s *Scanner) scanChromeProfiles(browserName, base string) []model.Item {
	var items []model.Item

	profiles := []string{"Default"}
	entries, err := os.ReadDir(base)
	if err != nil {
		s.tracker.RecordError(err)
		return items
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "Profile ") {
			profiles = append(profiles, e.Name())
		}
	}

	for _, profile := range profiles {
		for _, sub := range chromeCacheSubdirs {
			cachePath := filepath.Join(base, profile, sub)
			if !probe.DirExists(cachePath) {
				continue
			}
			size := s.sizeDir(cachePath)
			if size <= MinItemSize {
				continue
			}
			it := s.newItem(cachePath, size, model.CategoryBrowserCache,
				fmt.Sprintf("%s %s (%s)", browserName, sub, profile),
				fmt.Sprintf("%s %s for %s", browserName, sub, profile))
			items = append(items, it)
			s.emitItem(it)
		}
	}
	return items
}

// scanFirefoxProfiles enumerates profile directories under Profiles/.
func (s *Scanner) scanFirefoxProfiles(browserName, base string) []model.Item {
	var items []model.Item

	entries, err := os.ReadDir(base)
	if err != nil {
		s.tracker.RecordError(err)
		return items
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, sub := range firefoxCacheSubdirs {
			cachePath := filepath.Join(base, e.Name(), sub)
			if !probe.DirExists(cachePath) {
				continue
			}
			size := s.sizeDir(cachePath)
			if size <= MinItemSize {
				continue
			}
			it := s.newItem(cachePath, size, model.CategoryBrowserCache,
				fmt.Sprintf("%s Cache (%s)", browserName, e.Name()),
				fmt.Sprintf("%s browser cache for profile %s", browserName, e.Name()))
			items = append(items, it)
			s.emitItem(it)
		}
	}
	return items
}

// scanSafari sizes the single Safari cache and its safe-browsing blob.
func (s *Scanner) scanSafari(browserName, base string) []model.Item {
	var items []model.Item

	if size := s.sizeDir(base); size > MinItemSize {
		it := s.newItem(base, size, model.CategoryBrowserCache,
			fmt.Sprintf("%s Cache", browserName),
			fmt.Sprintf("%s browser cache and website data", browserName))
		items = append(items, it)
		s.emitItem(it)
	}

	safeBrowsing := filepath.Join(s.info.LibraryDir, "Caches", "com.apple.Safari.SafeBrowsing")
	if probe.DirExists(safeBrowsing) {
		if size := s.sizeDir(safeBrowsing); size > MinItemSize {
			it := s.newItem(safeBrowsing, size, model.CategoryBrowserCache,
				"Safari Safe Browsing Data", "Safari safe browsing database cache")
			items = append(items, it)
			s.emitItem(it)
		}
	}
	return items
}

// appCacheTargets is the static table of known application caches.
func (s *Scanner) appCacheTargets() []struct{ name, path, description string } {
	lib := s.info.LibraryDir
	return []struct{ name, path, description string }{
		{"Spotify Cache", filepath.Join(lib, "Caches", "com.spotify.client"), "Spotify streaming cache and offline data"},
		{"Spotify App Support", filepath.Join(lib, "Application Support", "Spotify", "PersistentCache"), "Spotify persistent cache data"},
		{"Slack Cache", filepath.Join(lib, "Application Support", "Slack", "Cache"), "Slack cached conversations and media"},
		{"Slack Service Worker", filepath.Join(lib, "Application Support", "Slack", "Service Worker"), "Slack service worker cache"},
		{"Discord Cache", filepath.Join(lib, "Application Support", "discord", "Cache"), "Discord cached messages and media"},
		{"Discord Code Cache", filepath.Join(lib, "Application Support", "discord", "Code Cache"), "Discord compiled code cache"},
		{"Adobe Creative Cloud Cache", filepath.Join(lib, "Caches", "Adobe"), "Adobe application caches"},
		{"Adobe CC App Data", filepath.Join(lib, "Application Support", "Adobe", "Common", "Media Cache Files"), "Adobe media cache files"},
		{"Xcode DerivedData", filepath.Join(lib, "Developer", "Xcode", "DerivedData"), "Compiled Xcode project build artifacts"},
		{"Xcode Archives", filepath.Join(lib, "Developer", "Xcode", "Archives"), "Xcode archived app builds"},
		{"Xcode Device Logs", filepath.Join(lib, "Developer", "Xcode", "iOS DeviceSupport"), "iOS device support files and symbols"},
		{"Xcode Simulators", filepath.Join(lib, "Developer", "CoreSimulator", "Devices"), "iOS Simulator installations and data"},
		{"Xcode Caches", filepath.Join(lib, "Caches", "com.apple.dt.Xcode"), "Xcode internal caches"},
		{"VS Code Cache", filepath.Join(lib, "Application Support", "Code", "Cache"), "VS Code editor cache"},
		{"VS Code Cached Extensions", filepath.Join(lib, "Application Support", "Code", "CachedExtensionVSIXs"), "VS Code extension installation cache"},
		{"Teams Cache", filepath.Join(lib, "Application Support", "Microsoft Teams", "Cache"), "Microsoft Teams cache data"},
		{"Zoom Cache", filepath.Join(lib, "Application Support", "zoom.us", "data"), "Zoom cached data"},
	}
}

// ScanAppCaches sweeps the known application cache table and folds in the
// Xcode per-project satellite entries. When the per-project enumeration
// succeeds it replaces the aggregate DerivedData row so the same bytes are
// never reported twice.
func (s *Scanner) ScanAppCaches(ctx context.Context) []model.Item {
	var items []model.Item

	derivedItems := s.scanXcodeDerivedData(ctx)

	for _, target := range s.appCacheTargets() {
		if target.name == "Xcode DerivedData" && len(derivedItems) > 0 {
			continue
		}
		if !probe.DirExists(target.path) || s.excluded(target.path) {
			continue
		}
		s.tracker.Update(target.path, 0, 0)
		size := s.sizeDir(target.path)
		if size <= MinItemSize {
			continue
		}
		it := s.newItem(target.path, size, model.CategoryAppCache, target.name, target.description)
		items = append(items, it)
		s.emitItem(it)
	}

	items = append(items, derivedItems...)

	s.emitFound(model.CategoryAppCache, "Application Caches", items)
	return items
}

// ScanSystemLogs sweeps the five log locations.
func (s *Scanner) ScanSystemLogs() []model.Item {
	lib := s.info.LibraryDir
	var items []model.Item

	targets := []struct{ name, path, description string }{
		{"User Logs", filepath.Join(lib, "Logs"), "Application and system log files in ~/Library/Logs"},
		{"System Logs", "/var/log", "macOS system log files"},
		{"ASL Logs", "/private/var/log/asl", "Apple System Log files"},
		{"Diagnostic Reports", filepath.Join(lib, "Logs", "DiagnosticReports"), "Crash reports and diagnostic data"},
		{"CoreSimulator Logs", filepath.Join(lib, "Logs", "CoreSimulator"), "iOS Simulator log files"},
	}

	for _, target := range targets {
		fi, err := os.Stat(target.path)
		if err != nil {
			continue
		}
		s.tracker.Update(target.path, 0, 0)
		var size int64
		if fi.IsDir() {
			size = s.sizeDir(target.path)
		} else {
			size = fi.Size()
		}
		if size <= MinItemSize {
			continue
		}
		it := s.newItem(target.path, size, model.CategorySystemLogs, target.name, target.description)
		items = append(items, it)
		s.emitItem(it)
	}

	s.emitFound(model.CategorySystemLogs, "System Logs", items)
	return items
}

// ScanMailAndBackups covers Mail downloads, iOS device backups and the
// Trash. Time Machine snapshots are surfaced through the disk map's hidden
// space instead: they have no attributable byte size without privileges.
func (s *Scanner) ScanMailAndBackups(ctx context.Context) []model.Item {
	home := s.info.HomeDir
	lib := s.info.LibraryDir
	var items []model.Item

	mailDownloads := filepath.Join(lib, "Containers", "com.apple.mail", "Data", "Library", "Mail Downloads")
	if !probe.DirExists(mailDownloads) {
		mailDownloads = filepath.Join(lib, "Mail Downloads")
	}
	if probe.DirExists(mailDownloads) {
		s.tracker.Update(mailDownloads, 0, 0)
		if size := s.sizeDir(mailDownloads); size > MinItemSize {
			it := s.newItem(mailDownloads, size, model.CategoryMailBackups,
				"Mail Downloads", "Email attachment downloads cached by Apple Mail")
			items = append(items, it)
			s.emitItem(it)
		}
	}

	items = append(items, s.scanIOSBackups(ctx)...)

	trash := filepath.Join(home, ".Trash")
	if probe.DirExists(trash) {
		s.tracker.Update(trash, 0, 0)
		if size := s.sizeDir(trash); size > MinItemSize {
			count := 0
			if entries, err := os.ReadDir(trash); err == nil {
				count = len(entries)
			}
			it := s.newItem(trash, size, model.CategoryMailBackups,
				fmt.Sprintf("Trash (%d items)", count),
				"Items in the macOS Trash that haven't been permanently deleted")
			items = append(items, it)
			s.emitItem(it)
		}
	}

	s.emitFound(model.CategoryMailBackups, "Mail, Backups & Trash", items)
	return items
}

// scanIOSBackups reports the local device backup folder as one item, named
// by the number of backups it holds.
func (s *Scanner) scanIOSBackups(ctx context.Context) []model.Item {
	backups := filepath.Join(s.info.LibraryDir, "Application Support", "MobileSync", "Backup")
	if !probe.DirExists(backups) {
		return nil
	}

	s.tracker.Update(backups, 0, 0)
	size := s.sizeDir(backups)
	if size <= MinItemSize {
		return nil
	}

	count := 0
	if entries, err := os.ReadDir(backups); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				count++
			}
		}
	}
	plural := "s"
	if count == 1 {
		plural = ""
	}
	it := s.newItem(backups, size, model.CategoryMailBackups,
		fmt.Sprintf("iOS Device Backups (%d backup%s)", count, plural),
		"Local backups of iPhones and iPads via Finder/iTunes")
	s.emitItem(it)
	return []model.Item{it}
}

// scanXcodeDerivedData lists each DerivedData project build separately so
// the recommender can target individual projects. Sizes come from du when
// available, the probe otherwise.
func (s *Scanner) scanXcodeDerivedData(ctx context.Context) []model.Item {
	derived := filepath.Join(s.info.LibraryDir, "Developer", "Xcode", "DerivedData")
	entries, err := os.ReadDir(derived)
	if err != nil {
		return nil
	}

	var items []model.Item
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "ModuleCache.noindex" {
			continue
		}
		path := filepath.Join(derived, e.Name())
		s.tracker.Update(path, 0, 0)

		size := s.duSize(ctx, path)
		if size <= MinItemSize {
			continue
		}

		// DerivedData folders are named Project-<hash>.
		projName := e.Name()
		if idx := strings.LastIndex(projName, "-"); idx > 0 {
			projName = projName[:idx]
		}
		it := s.newItem(path, size, model.CategoryAppCache,
			fmt.Sprintf("Xcode Build (%s)", projName),
			fmt.Sprintf("Build artifacts for %s", projName))
		items = append(items, it)
		s.emitItem(it)
	}
	return items
}

// duSize sizes a directory through `du -sk`, falling back to the probe when
// the tool is unavailable or fails.
func (s *Scanner) duSize(ctx context.Context, path string) int64 {
	if s.info.Tools != nil {
		if out, err := s.info.Tools.Run(ctx, "du", "-sk", path); err == nil {
			if size := platform.ParseDuKilobytes(out); size > 0 {
				return size
			}
		}
	}
	return s.sizeDir(path)
}
