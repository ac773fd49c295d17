package config

// Pressfile represents the structure of the press.yaml configuration file.
type Pressfile struct {
	Version    string             `yaml:"version"`
	SourceRoot string             `yaml:"source_root"`
	DestRoot   string             `yaml:"dest_root"`
	ServeRoot  string             `yaml:"serve_root"`
	Bundle     string             `yaml:"bundle"`
	Paths      map[string]PathDTO `yaml:"paths"`
	Styles     StylesDTO          `yaml:"styles"`
	Images     ImagesDTO          `yaml:"images"`
	Server     ServerDTO          `yaml:"server"`
	Watch      WatchDTO           `yaml:"watch"`
}

// PathDTO overrides the source glob and destination of one category.
type PathDTO struct {
	Src  string `yaml:"src"`
	Dest string `yaml:"dest"`
}

// StylesDTO configures stylesheet compilation.
type StylesDTO struct {
	Command       []string `yaml:"command"`
	Compatibility string   `yaml:"compatibility"`
}

// ImagesDTO configures image compression.
type ImagesDTO struct {
	JPEGQuality int                 `yaml:"jpeg_quality"`
	Optimizers  map[string][]string `yaml:"optimizers"`
}

// ServerDTO configures the development server.
type ServerDTO struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	LiveReload *bool  `yaml:"live_reload"`
}

// WatchDTO configures source watching.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
