// Package config loads service settings from defaults, an optional config
// file, .env files and VIDEODL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. VIDEODL_SERVER_PORT
const EnvPrefix = "VIDEODL"

// Settings keys
const (
	KeyServerHost      = "server.host"
	KeyServerPort      = "server.port"
	KeyServerMode      = "server.mode"
	KeyShutdownTimeout = "server.shutdown_timeout"

	KeyDownloadsDir = "paths.downloads"
	KeyLogsDir      = "paths.logs"
	KeyTempDir      = "paths.temp"

	KeyMaxParallel  = "download.max_parallel"
	KeyQueueSize    = "download.queue_size"
	KeyJobTimeout   = "download.job_timeout"
	KeyStaticPrefix = "download.static_prefix"

	KeyPollInterval = "stream.poll_interval"

	KeyYTDLPExecutable = "ytdlp.executable"
	KeyYTDLPInstall    = "ytdlp.install"

	KeyInstagramBaseURL = "instagram.base_url"
	KeyInstagramTimeout = "instagram.timeout"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
	KeyLogOutput = "log.output"
	KeyLogFile   = "log.file"

	KeyMetricsEnabled = "metrics.enabled"
	KeyMetricsPath    = "metrics.path"
)

// Default values
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultMode            = "release"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultDownloadsDir    = "/tmp/downloads"
	DefaultLogsDir         = "/tmp/logs"
	DefaultMaxParallel     = 2
	MinMaxParallel         = 1
	MaxMaxParallel         = 10
	DefaultQueueSize       = 100
	DefaultJobTimeout      = 30 * time.Minute
	DefaultStaticPrefix    = "/static/downloads/"
	DefaultPollInterval    = 300 * time.Millisecond
	DefaultInstagramURL    = "https://www.instagram.com"
	DefaultInstagramTTL    = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultLogOutput       = "stdout"
	DefaultLogFile         = "/tmp/logs/server.log"
	DefaultMetricsPath     = "/metrics"
)

type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for the listener
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type Paths struct {
	Downloads string `mapstructure:"downloads"`
	Logs      string `mapstructure:"logs"`
	Temp      string `mapstructure:"temp"`
}

type Download struct {
	MaxParallel  int           `mapstructure:"max_parallel"`
	QueueSize    int           `mapstructure:"queue_size"`
	JobTimeout   time.Duration `mapstructure:"job_timeout"`
	StaticPrefix string        `mapstructure:"static_prefix"`
}

type Stream struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type YTDLP struct {
	Executable string `mapstructure:"executable"`
	Install    bool   `mapstructure:"install"`
}

type Instagram struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Settings is the complete service configuration
type Settings struct {
	Server    Server    `mapstructure:"server"`
	Paths     Paths     `mapstructure:"paths"`
	Download  Download  `mapstructure:"download"`
	Stream    Stream    `mapstructure:"stream"`
	YTDLP     YTDLP     `mapstructure:"ytdlp"`
	Instagram Instagram `mapstructure:"instagram"`
	Log       Log       `mapstructure:"log"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

// Load reads settings. configFile may be empty, in which case config.{yaml,json,toml}
// is searched in the usual places and its absence is not an error.
func Load(configFile string) (*Settings, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.video-downloader")
		}
		v.AddConfigPath("/etc/video-downloader")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	s.normalize()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerHost, DefaultHost)
	v.SetDefault(KeyServerPort, DefaultPort)
	v.SetDefault(KeyServerMode, DefaultMode)
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)

	v.SetDefault(KeyDownloadsDir, DefaultDownloadsDir)
	v.SetDefault(KeyLogsDir, DefaultLogsDir)
	v.SetDefault(KeyTempDir, os.TempDir())

	v.SetDefault(KeyMaxParallel, DefaultMaxParallel)
	v.SetDefault(KeyQueueSize, DefaultQueueSize)
	v.SetDefault(KeyJobTimeout, DefaultJobTimeout)
	v.SetDefault(KeyStaticPrefix, DefaultStaticPrefix)

	v.SetDefault(KeyPollInterval, DefaultPollInterval)

	v.SetDefault(KeyYTDLPExecutable, "")
	v.SetDefault(KeyYTDLPInstall, false)

	v.SetDefault(KeyInstagramBaseURL, DefaultInstagramURL)
	v.SetDefault(KeyInstagramTimeout, DefaultInstagramTTL)

	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyLogOutput, DefaultLogOutput)
	v.SetDefault(KeyLogFile, DefaultLogFile)

	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyMetricsPath, DefaultMetricsPath)
}

// normalize clamps values that have a safe fallback instead of failing
func (s *Settings) normalize() {
	s.Download.MaxParallel = ClampMaxParallel(s.Download.MaxParallel)
	if s.Download.QueueSize <= 0 {
		s.Download.QueueSize = DefaultQueueSize
	}
	if s.Stream.PollInterval <= 0 {
		s.Stream.PollInterval = DefaultPollInterval
	}
	if !strings.HasPrefix(s.Download.StaticPrefix, "/") {
		s.Download.StaticPrefix = "/" + s.Download.StaticPrefix
	}
	if !strings.HasSuffix(s.Download.StaticPrefix, "/") {
		s.Download.StaticPrefix += "/"
	}
	if s.Paths.Temp == "" {
		s.Paths.Temp = os.TempDir()
	}
}

// ClampMaxParallel keeps the worker count within 1..10
func ClampMaxParallel(count int) int {
	return min(max(count, MinMaxParallel), MaxMaxParallel)
}

// Validate reports settings that cannot work
func (s *Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Server.Port)
	}
	if s.Paths.Downloads == "" {
		return errors.New("downloads directory is required")
	}
	if s.Paths.Logs == "" {
		return errors.New("logs directory is required")
	}
	switch s.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode: %s", s.Server.Mode)
	}
	return nil
}
