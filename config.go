package microsite

import "github.com/goliatone/go-microsite/internal/runtimeconfig"

var (
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrStorageDriverUnknown       = runtimeconfig.ErrStorageDriverUnknown
	ErrStoragePathRequired        = runtimeconfig.ErrStoragePathRequired
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrRevisionLimitInvalid       = runtimeconfig.ErrRevisionLimitInvalid
	ErrEditorDebounceInvalid      = runtimeconfig.ErrEditorDebounceInvalid
	ErrRenderCompositionInvalid   = runtimeconfig.ErrRenderCompositionInvalid
	ErrUploadDirRequired          = runtimeconfig.ErrUploadDirRequired
	ErrUploadLimitInvalid         = runtimeconfig.ErrUploadLimitInvalid
	ErrUploadWidthInvalid         = runtimeconfig.ErrUploadWidthInvalid
	ErrGeneratorOutputDirRequired = runtimeconfig.ErrGeneratorOutputDirRequired
)

type (
	Config          = runtimeconfig.Config
	LoggingConfig   = runtimeconfig.LoggingConfig
	StorageConfig   = runtimeconfig.StorageConfig
	EditorConfig    = runtimeconfig.EditorConfig
	RenderConfig    = runtimeconfig.RenderConfig
	UploadsConfig   = runtimeconfig.UploadsConfig
	MarkdownConfig  = runtimeconfig.MarkdownConfig
	ServerConfig    = runtimeconfig.ServerConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
)

const (
	CompositionScaleOnly      = runtimeconfig.CompositionScaleOnly
	CompositionTranslateScale = runtimeconfig.CompositionTranslateScale
)

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
