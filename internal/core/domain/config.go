package domain

import "time"

// Config is the validated project configuration.
type Config struct {
	// Paths maps asset categories to their source globs and destinations.
	Paths *PathConfig
	// ServeRoot is the directory served by the development server.
	ServeRoot string
	// BundleName is the base name of the concatenated bundles.
	BundleName string
	Styles     StyleConfig
	Images     ImageConfig
	Server     ServerConfig
	Watch      WatchConfig
}

// StyleConfig configures stylesheet compilation and minification.
type StyleConfig struct {
	// Command is the compiler invocation, the first element being the executable.
	Command []string
	// Compatibility selects the CSS minifier compatibility target ("ie8" keeps CSS2 syntax).
	Compatibility string
}

// ImageConfig configures image compression.
type ImageConfig struct {
	// JPEGQuality is the quality used when re-encoding JPEG files.
	JPEGQuality int
	// Optimizers maps a lowercase extension (".png") to an external command that
	// reads the image on stdin and writes the optimized image on stdout.
	Optimizers map[string][]string
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Host string
	Port int
	// LiveReload toggles script injection into served HTML.
	LiveReload bool
}

// WatchConfig configures source watching.
type WatchConfig struct {
	// Debounce coalesces bursts of events per path. Zero disables debouncing.
	Debounce time.Duration
}

// Default values mirror the classic public_html layout.
const (
	DefaultSourceRoot    = "public_html/assets"
	DefaultDestRoot      = "public_html/dist"
	DefaultBundleName    = "johndoe"
	DefaultHost          = "localhost"
	DefaultPort          = 3000
	DefaultJPEGQuality   = 80
	DefaultCompatibility = "ie8"
)

// DefaultPathEntries returns the default category layout.
func DefaultPathEntries() map[Category]PathEntry {
	return map[Category]PathEntry{
		CategoryHTML:    {SourceGlob: "public_html/**/*.html", DestDir: "public_html/dist"},
		CategoryCSS:     {SourceGlob: "public_html/assets/css/*.css", DestDir: "public_html/dist/css"},
		CategoryJS:      {SourceGlob: "public_html/assets/js/*.js", DestDir: "public_html/dist/js"},
		CategoryVendors: {SourceGlob: "public_html/assets/vendors/**/*.*", DestDir: "public_html/dist/vendors"},
		CategoryImages:  {SourceGlob: "public_html/assets/imgs/**/*.{png,jpg,jpeg,gif,svg}", DestDir: "public_html/dist/imgs"},
		CategorySCSS:    {SourceGlob: "public_html/assets/scss/**/*.scss", DestDir: "public_html/dist/css"},
	}
}
