package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvHTTPPort        = "HTTP_PORT"
	EnvArtifactsDir    = "ARTIFACTS_DIR"
	EnvDatasetPath     = "DATASET_PATH"
	EnvDatasetSheet    = "DATASET_SHEET"
	EnvDataPath        = "DATA_PATH"
	EnvPageSize        = "PAGE_SIZE"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvReportName      = "REPORT_NAME"
)

// Configuration defaults
const (
	DefaultHTTPPort        = 8050
	DefaultArtifactsDir    = "artifacts"
	DefaultDatasetPath     = "DataSet.xlsx"
	DefaultDataPath        = "data"
	DefaultPageSize        = 15
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultReportName      = "Report.txt"
	DefaultReadTimeoutSec  = 10
	DefaultWriteTimeoutSec = 10
	DefaultShutdownSec     = 10
	DefaultWSPongWaitSec   = 60
)

// Artifact file names
const (
	ManifestFile          = "manifest.json"
	ScalerFile            = "scaler.json"
	SVRFile               = "SVR.json"
	RandomForestFile      = "Random_Forest.json"
	LinearRegressionFile  = "Linear_Regression.json"
	DatasetStoreFile      = "dataset.db"
	DefaultDatasetCSVName = "DataSet.csv"
)

// Validation constants
const (
	MinHTTPPort = 1024
	MaxHTTPPort = 65535
	MinPageSize = 1
	MaxPageSize = 500
)

// Log output formats
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Common error messages
const (
	ErrMsgArtifactsDirRequired = "artifacts directory is required"
	ErrMsgDatasetPathRequired  = "dataset path is required"
)
