package sensors

import "strings"

// packageNames maps common package identifiers to display names. Unknown
// packages fall back to last-segment capitalization.
var packageNames = map[string]string{
	"com.lifesync.games":           "LifeSync Games",
	"com.instagram.android":        "Instagram",
	"com.facebook.katana":          "Facebook",
	"com.facebook.orca":            "Messenger",
	"com.whatsapp":                 "WhatsApp",
	"org.telegram.messenger":       "Telegram",
	"com.twitter.android":          "Twitter",
	"com.twitter.x":                "X",
	"com.zhiliaoapp.musically":     "TikTok",
	"com.snapchat.android":         "Snapchat",
	"com.reddit.frontpage":         "Reddit",
	"com.youtube.android":          "YouTube",
	"com.duolingo":                 "Duolingo",
	"com.headspace.app":            "Headspace",
	"com.strava":                   "Strava",
	"com.notion.id":                "Notion",
	"com.todoist":                  "Todoist",
	"com.amazon.kindle":            "Kindle",
	"com.audible.application":      "Audible",
	"com.spotify.music":            "Spotify",
	"com.netflix.mediaclient":      "Netflix",
	"com.miui.gallery":             "Gallery",
	"com.android.chrome":           "Chrome",
	"com.google.android.gm":        "Gmail",
	"com.google.android.apps.maps": "Google Maps",
}

// systemPackages lists identifiers (launchers, settings, platform services)
// that never start or end a tracked interval. Matched by substring.
var systemPackages = []string{
	"com.google.android.apps.nexuslauncher",
	"com.google.android.launcher",
	"com.android.launcher",
	"com.android.launcher2",
	"com.android.launcher3",
	"com.sec.android.app.launcher",
	"com.samsung.android.app.spage",
	"com.miui.home",
	"com.huawei.android.launcher",
	"com.oneplus.launcher",
	"com.oppo.launcher",
	"com.vivo.launcher",
	"com.realme.launcher",
	"com.xiaomi.launcher",
	"com.android.settings",
	"com.android.systemui",
	"com.google.android.setupwizard",
	"com.google.android.gms",
	"com.google.android.apps",
	"com.android.permissioncontroller",
	"com.android.packageinstaller",
}

// appNameFromPackage maps a package identifier to a human-readable name.
func appNameFromPackage(pkg string) string {
	if pkg == "" {
		return ""
	}
	if name, ok := packageNames[pkg]; ok {
		return name
	}

	parts := strings.Split(pkg, ".")
	last := parts[len(parts)-1]
	// "com.vendor.android" style identifiers name the app in the segment
	// before the trailing "android".
	if last == "android" && len(parts) > 1 {
		last = parts[len(parts)-2]
	}
	if last == "" {
		return pkg
	}
	return strings.ToUpper(last[:1]) + last[1:]
}

// isSystemPackage reports whether a package identifier belongs to the
// platform rather than a user application.
func isSystemPackage(pkg string) bool {
	if pkg == "" {
		return true
	}
	lower := strings.ToLower(pkg)
	for _, sys := range systemPackages {
		if strings.Contains(lower, sys) {
			return true
		}
	}
	if strings.HasPrefix(lower, "com.android.") &&
		(strings.Contains(lower, "launcher") ||
			strings.Contains(lower, "system") ||
			strings.Contains(lower, "settings")) {
		return true
	}
	return false
}
