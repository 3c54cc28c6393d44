package constants

import (
	"time"
)

// Version slots
const (
	// DefaultNewVersion - value of the "new" slot when nothing has been persisted yet
	DefaultNewVersion = "1.0.0"

	// DefaultCurrentVersion - value of the "current" slot when nothing has been persisted yet
	DefaultCurrentVersion = "0.0.0"

	// NewVersionFile - file holding the version the next release will adopt
	NewVersionFile = "version-new.txt"

	// CurrentVersionFile - file holding the last released version
	CurrentVersionFile = "version-current.txt"
)

// WiX toolchain defaults
const (
	// CompilerTool - WiX compiler, turns the .wxs source into an object file
	CompilerTool = "candle"

	// LinkerTool - WiX linker, turns the object file into the .msi package
	LinkerTool = "light"

	// UIExtension - WiX extension passed to the linker for the standard install dialogs
	UIExtension = "WixUIExtension"

	// VersionVariable - preprocessor variable the .wxs source reads the product version from
	VersionVariable = "Version"

	// ToolchainDownloadURL - where users get the toolchain when precheck fails
	ToolchainDownloadURL = "https://wixtoolset.org/releases/"

	// DefaultToolTimeout - upper bound for one compiler or linker run.
	// 0 in the config disables the limit.
	DefaultToolTimeout = 10 * time.Minute
)

// Package artifacts
const (
	// SourceFile - WiX source definition
	SourceFile = "Product.wxs"

	// IntermediateFile - compiler output, consumed by the linker
	IntermediateFile = "Product.wixobj"

	// PackageFile - linker output, the deliverable
	PackageFile = "Product.msi"
)

// Configuration
const (
	// ConfigFileName - build configuration, looked up in the working directory
	ConfigFileName = "msibuild.ini"

	// LogMaxSizeMB - rotate the optional log file after this many megabytes
	LogMaxSizeMB = 10

	// LogMaxBackups - rotated log files to keep
	LogMaxBackups = 5

	// LogMaxAgeDays - delete rotated log files older than this
	LogMaxAgeDays = 30
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels.
	// A build emits fewer than a dozen transitions, so this never fills in practice.
	EventBusDefaultBuffer = 64

	// EventBusMaxBuffer - maximum buffer size
	EventBusMaxBuffer = 1024
)

// Disk Space
const (
	// MinFreeSpaceBytes - precheck warns below this much free space in the
	// working directory
	MinFreeSpaceBytes = 64 * 1024 * 1024
)

// UI Updates
const (
	// SpinnerInterval - how often the step spinner redraws
	SpinnerInterval = 100 * time.Millisecond
)
