package definitions

// Global settings, Read from diskhealth flags
var (
	Debug     bool
	LogFormat string
)

// Build information, set by the main package
var (
	BuildVersion string
	BuildTime    string
	GoVersion    string
)
