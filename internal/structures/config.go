package structures

import (
	"flairhq/internal/models"
	"time"
)

type Server struct {
	Host           string   `yaml:"host" validate:"required"`
	Port           int      `yaml:"port" validate:"required|uint|min:1"`
	CORSOrigins    []string `yaml:"corsOrigins"`
	TrustedProxies []string `yaml:"trustedProxies"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type EventStoreConfig struct {
	Driver   string `yaml:"driver" validate:"in:sqlite,mongo"`
	MongoURI string `yaml:"mongoURI"`
	Database string `yaml:"database"`
}

type StorageConfig struct {
	Path   string           `yaml:"path" validate:"required|unixPath"`
	Events EventStoreConfig `yaml:"events"`
}

type ArchiveConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FilePath string        `yaml:"filePath" validate:"unixPath"`
	Interval time.Duration `yaml:"interval"`
}

type RedditConfig struct {
	ClientID          string        `yaml:"clientID" validate:"required"`
	ClientSecret      string        `yaml:"clientSecret"`
	AdminRefreshToken string        `yaml:"adminRefreshToken" validate:"required"`
	UserAgent         string        `yaml:"userAgent" validate:"required"`
	BaseURL           string        `yaml:"baseURL" validate:"required|fullUrl"`
	TokenURL          string        `yaml:"tokenURL" validate:"required|fullUrl"`
	Timeout           time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwtSecret" validate:"required|minLen:16"`
	TokenTTL   time.Duration `yaml:"tokenTTL" validate:"required"`
	Issuer     string        `yaml:"issuer"`
	Moderators []string      `yaml:"moderators"`
}

type AuditConfig struct {
	QueueSize int `yaml:"queueSize"`
}

type FlairConfig struct {
	TradesSubject       string                   `yaml:"tradesSubject" validate:"required"`
	ExchangeSubject     string                   `yaml:"exchangeSubject" validate:"required"`
	TextCooldown        time.Duration            `yaml:"textCooldown" validate:"required"`
	SimilarityThreshold int                      `yaml:"similarityThreshold" validate:"min:0|max:3"`
	FriendCodeChecksum  bool                     `yaml:"friendCodeChecksum"`
	ReportRecipient     string                   `yaml:"reportRecipient" validate:"required"`
	NoteSubject         string                   `yaml:"noteSubject" validate:"required"`
	Definitions         []models.FlairDefinition `yaml:"definitions"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Logger    LoggerConfig  `yaml:"logger"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Storage   StorageConfig `yaml:"storage"`
	Archive   ArchiveConfig `yaml:"archive"`
	Reddit    RedditConfig  `yaml:"reddit"`
	Auth      AuthConfig    `yaml:"auth"`
	Audit     AuditConfig   `yaml:"audit"`
	Flair     FlairConfig   `yaml:"flair"`
}
