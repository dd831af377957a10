package constants

// Log file names and rotation settings.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.testmo/logs/testmo.log
	CLILogFileName = "testmo.log"

	// LogMaxSizeMB is the size at which the CLI log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files kept.
	LogMaxBackups = 5

	// LogMaxAgeDays is the maximum age of a rotated log file.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global TestMo configuration file.
	// This file is located in the TestMo home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigDir is the directory holding project-specific configuration.
	ProjectConfigDir = ".testmo"

	// EnvFileName is the dotenv file loaded before environment variables are read.
	EnvFileName = ".env"
)

// Export file naming.
const (
	// ExportFilePrefix starts every export file name.
	ExportFilePrefix = "TestMo_"

	// ExportDateLayout formats the date suffix of export file names.
	ExportDateLayout = "2006-01-02"
)
