package domain

import "path/filepath"

const (
	// PressDirName is the name of the internal workspace directory.
	PressDirName = ".press"

	// StoreDirName is the name of the build record directory.
	StoreDirName = "store"

	// StoreFileName is the name of the build record file.
	StoreFileName = "builds.json"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "press.yaml"

	// EnvFileName is the name of the optional dotenv file.
	EnvFileName = ".env"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// OutputDirPerm is the permission for generated output directories (rwxr-xr-x).
	OutputDirPerm = 0o755

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default path of the build record file.
// It joins .press, store and builds.json.
func DefaultStorePath() string {
	return filepath.Join(PressDirName, StoreDirName, StoreFileName)
}
