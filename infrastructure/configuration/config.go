package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"content-scheduler/infrastructure/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Scheduler   Scheduler   `json:"scheduler"`
	TikTok      TikTok      `json:"tiktok"`
	YouTube     YouTube     `json:"youtube"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port           int      `json:"port"`
	SecretKey      string   `json:"secretKey"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

// Scheduler holds the publish engine knobs. Durations are in the unit their name carries.
type Scheduler struct {
	Enabled                 bool   `json:"enabled"`
	TickSpec                string `json:"tickSpec"`
	TokenRefreshSpec        string `json:"tokenRefreshSpec"`
	Timezone                string `json:"timezone"`
	TickTimeoutSeconds      int    `json:"tickTimeoutSeconds"`
	RequestTimeoutSeconds   int    `json:"requestTimeoutSeconds"`
	FallbackBatchSize       int    `json:"fallbackBatchSize"`
	MaxErrorCount           int    `json:"maxErrorCount"`
	RefreshSkewMinutes      int    `json:"refreshSkewMinutes"`
	RefreshLookaheadMinutes int    `json:"refreshLookaheadMinutes"`
	LockTTLSeconds          int    `json:"lockTTLSeconds"`
	UploadsPerMinute        int    `json:"uploadsPerMinute"`
}

type TikTok struct {
	ClientKey    string   `json:"clientKey"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	BaseURL      string   `json:"baseURL"`
	AuthURL      string   `json:"authURL"`
	Scopes       []string `json:"scopes"`
	PrivacyLevel string   `json:"privacyLevel"`
}

type YouTube struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
	Privacy      string   `json:"privacy"`
	CategoryID   string   `json:"categoryId"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	TopicID   string `json:"topicID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	QueueName string `json:"queueName"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

var (
	C  Config
	mu sync.RWMutex
)

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPlatforms(&C)
}

func setDefaults() {
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.tickSpec", "*/10 * * * *")
	viper.SetDefault("scheduler.tokenRefreshSpec", "0 * * * *")
	viper.SetDefault("scheduler.timezone", "UTC")
	viper.SetDefault("scheduler.tickTimeoutSeconds", 540)
	viper.SetDefault("scheduler.requestTimeoutSeconds", 30)
	viper.SetDefault("scheduler.fallbackBatchSize", 5)
	viper.SetDefault("scheduler.maxErrorCount", 5)
	viper.SetDefault("scheduler.refreshSkewMinutes", 5)
	viper.SetDefault("scheduler.refreshLookaheadMinutes", 120)
	viper.SetDefault("scheduler.lockTTLSeconds", 540)
	viper.SetDefault("scheduler.uploadsPerMinute", 6)
	viper.SetDefault("tiktok.baseURL", "https://open.tiktokapis.com/v2")
	viper.SetDefault("tiktok.authURL", "https://www.tiktok.com/v2/auth/authorize/")
	viper.SetDefault("tiktok.scopes", []string{"user.info.basic", "video.upload", "video.publish"})
	viper.SetDefault("tiktok.privacyLevel", "SELF_ONLY")
	viper.SetDefault("youtube.privacy", "private")
	viper.SetDefault("youtube.categoryId", "22")
	viper.SetDefault("pubsub.topicID", "publish-events")
	viper.SetDefault("serviceBus.queueName", "publish-events")
	viper.SetDefault("logger.level", "debug")
}

func LoadConfig() {
	name := getConfig()
	setDefaults()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

// SchedulerSettings returns the current scheduler section; it may change after a config reload.
func SchedulerSettings() Scheduler {
	mu.RLock()
	defer mu.RUnlock()
	return C.Scheduler
}

// WatchScheduler re-reads the scheduler and logger sections whenever the config file changes and
// passes the new scheduler section to onChange. It does nothing when no config file was loaded.
func WatchScheduler(onChange func(Scheduler)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		var next Config
		if err := viper.Unmarshal(&next); err != nil {
			logger.GetLogger().WithField("error", err).Error("config reload failed")
			return
		}
		mu.Lock()
		C.Scheduler = next.Scheduler
		C.Logger = next.Logger
		mu.Unlock()
		logger.SetLevel(next.Logger.Level)
		logger.GetLogger().WithField("file", e.Name).WithField("op", e.Op.String()).Info("config reloaded")
		if onChange != nil {
			onChange(next.Scheduler)
		}
	})
	viper.WatchConfig()
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = getEnv("DB_PORT", "5432")
	}
	if C.Database.Psql.SSLMode == "" {
		C.Database.Psql.SSLMode = getEnv("DB_SSLMODE", "disable")
	}
	logger.GetLogger().
		WithField("host", C.Database.Psql.Host).
		WithField("name", C.Database.Psql.Name).
		Info("Database configuration")

	// Azure SQL in production
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = getEnv("MSSQL_USER", "sa")
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
	if C.Database.Mongo.Port == "" {
		C.Database.Mongo.Port = getEnv("MONGO_PORT", "27017")
	}
	if C.Database.Mongo.Name == "" {
		C.Database.Mongo.Name = getEnv("MONGO_DB_NAME", "content_scheduler")
	}
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if len(C.App.AllowedOrigins) == 0 {
		C.App.AllowedOrigins = []string{"http://localhost:4200", "https://localhost:4200"}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }

func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
