package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a prerequisite that is not defined yet.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrInvalidTaskName is returned when a task name is empty.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrUnknownCategory is returned when a category has no path entry.
	ErrUnknownCategory = zerr.New("unknown asset category")

	// ErrDestOutsideRoot is returned when a destination directory is not inside the destination root.
	ErrDestOutsideRoot = zerr.New("destination directory is outside the destination root")

	// ErrInvalidGlob is returned when a source glob cannot be parsed.
	ErrInvalidGlob = zerr.New("invalid source glob")

	// ErrInvalidConfig is returned when the configuration is inconsistent.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrEnvFileLoadFailed is returned when the .env file exists but cannot be loaded.
	ErrEnvFileLoadFailed = zerr.New("failed to load env file")

	// ErrBuildExecutionFailed is returned when a task run fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskExecutionFailed is returned when a single task action fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrNoActionBound is returned when a task with a category has no action registered.
	ErrNoActionBound = zerr.New("no action bound to task")

	// ErrSourceResolutionFailed is returned when a source glob cannot be expanded.
	ErrSourceResolutionFailed = zerr.New("failed to resolve source files")

	// ErrStyleCompileFailed is returned when a stylesheet does not compile.
	ErrStyleCompileFailed = zerr.New("failed to compile stylesheet")

	// ErrPrefixFailed is returned when vendor prefixing fails.
	ErrPrefixFailed = zerr.New("failed to vendor-prefix stylesheet")

	// ErrMinifyFailed is returned when minification fails.
	ErrMinifyFailed = zerr.New("failed to minify")

	// ErrImageCompressFailed is returned when an image cannot be compressed.
	ErrImageCompressFailed = zerr.New("failed to compress image")

	// ErrCommandFailed is returned when an external command exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrFileReadFailed is returned when a source file cannot be read.
	ErrFileReadFailed = zerr.New("failed to read file")

	// ErrFileWriteFailed is returned when an output file cannot be written.
	ErrFileWriteFailed = zerr.New("failed to write file")

	// ErrCleanFailed is returned when the destination root cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean destination")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrWatcherStartFailed is returned when the file watcher cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")

	// ErrNoTargetsSpecified is returned when a run names no task.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrAlreadyWatching is returned when the dev loop is started twice.
	ErrAlreadyWatching = zerr.New("dev loop is already watching")

	// ErrServerFailed is returned when the development server stops unexpectedly.
	ErrServerFailed = zerr.New("development server failed")
)
