package config

const (
	defaultConfigPath             = "~/.config/mintwatch/config.toml"
	defaultInboxDir               = "~/mintwatch/inbox"
	defaultProcessedDir           = "~/mintwatch/processed"
	defaultStateDir               = "~/.local/share/mintwatch"
	defaultLogDir                 = "~/.local/share/mintwatch/logs"
	defaultLogRetentionDays       = 60
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultStorageBackend         = StorageBackendGateway
	defaultReadGatewayURL         = "https://ipfs.io/ipfs/"
	defaultS3Region               = "us-east-1"
	defaultStorageRequestTimeout  = 120
	defaultVerifyTimeout          = 900
	defaultVerifyInitialInterval  = 5
	defaultVerifyMaxInterval      = 60
	defaultVerifyInlineMaxBytes   = 5 << 20
	DefaultMinterTimeoutSeconds   = 120
	defaultDebounceSeconds        = 3
	defaultUploadAttempts         = 3
	defaultUploadBaseDelaySeconds = 2
	defaultUploadMaxDelaySeconds  = 30
	defaultNotifyRequestTimeout   = 10
)

// Supported clusters.
const (
	ClusterDevnet  = "devnet"
	ClusterTestnet = "testnet"
	ClusterMainnet = "mainnet-beta"
)

// Supported storage backends.
const (
	StorageBackendGateway = "gateway"
	StorageBackendS3      = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:     defaultInboxDir,
			ProcessedDir: defaultProcessedDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Network: Network{
			Cluster: ClusterDevnet,
		},
		Storage: Storage{
			Backend:               defaultStorageBackend,
			ReadGatewayURL:        defaultReadGatewayURL,
			S3Region:              defaultS3Region,
			S3UseSSL:              true,
			RequestTimeout:        defaultStorageRequestTimeout,
			Verify:                true,
			VerifyTimeout:         defaultVerifyTimeout,
			VerifyInitialInterval: defaultVerifyInitialInterval,
			VerifyMaxInterval:     defaultVerifyMaxInterval,
			VerifyInlineMaxBytes:  defaultVerifyInlineMaxBytes,
		},
		Minter: Minter{
			TimeoutSeconds: DefaultMinterTimeoutSeconds,
		},
		Pipeline: Pipeline{
			DebounceSeconds:        defaultDebounceSeconds,
			UploadAttempts:         defaultUploadAttempts,
			UploadBaseDelaySeconds: defaultUploadBaseDelaySeconds,
			UploadMaxDelaySeconds:  defaultUploadMaxDelaySeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Minted:         true,
			Failures:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
