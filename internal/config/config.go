package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultDebugMode                = false
	DefaultLogFormat                = "text"
	DefaultEnvFile                  = ".env"
	DefaultAPIEndpoint              = "http://localhost:8000/api/"
	DefaultStoreCode                = "main"
	DefaultCountry                  = "DE"
	DefaultHTTPTimeout              = 10 * time.Second
	DefaultServerHost               = "127.0.0.1"
	DefaultServerPort               = "8080"
	DefaultServerReadTimeout        = 10 * time.Second
	DefaultServerWriteTimeout       = 10 * time.Second
	DefaultServerIdleTimeout        = 120 * time.Second
	DefaultServerShutdownTimeout    = 10 * time.Second
	DefaultStorageType              = "sqlite"
	DefaultStoragePrefix            = "/user-service/"
	DefaultEtcdAddrList             = "http://localhost:2379"
	DefaultEtcdTLSEnabled           = false
	DefaultEtcdServerCACertPath     = "/etc/etcd/ca.crt"
	DefaultEtcdServerClientCertPath = "/etc/etcd/client.crt"
	DefaultEtcdServerClientKeyPath  = "/etc/etcd/client.key"
	DefaultEtcdDialTimeout          = 5 * time.Second
	DefaultRedisAddr                = "localhost:6379"
	DefaultRedisDB                  = 0
	DefaultSQLitePath               = "user-service.db"
	DefaultCacheEnabled             = false
	DefaultCacheSize                = 1000
	DefaultCacheTTL                 = 30 * time.Second
)

// Names understood by Config.Get.
const (
	NameAPIEndpoint = "apiEndpoint"
	NameStoreCode   = "storeCode"
)

type Config struct {
	Shop      ShopCfg
	Server    ServerCfg
	Storage   StorageCfg
	Cache     CacheCfg
	Debug     bool
	LogFormat string
}

type ShopCfg struct {
	APIEndpoint    string
	StoreCode      string
	DefaultCountry string
	Timeout        time.Duration
}

type ServerCfg struct {
	Host    string
	Port    string
	Timeout ServerTimeout
}

type ServerTimeout struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

type StorageCfg struct {
	Type   string `validate:"required" oneof:"memory etcd redis sqlite mysql"`
	Prefix string
	Etcd   EtcdCfg
	Redis  RedisCfg
	SQLite SQLiteCfg
	MySQL  MySQLCfg
}

type EtcdCfg struct {
	EtcdAddrList         []string
	DialTimeout          time.Duration
	TLSEnabled           bool
	ServerCACertPath     string
	ServerClientCertPath string
	ServerClientKeyPath  string
}

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
}

type SQLiteCfg struct {
	Path string
}

type MySQLCfg struct {
	DSN string
}

type CacheCfg struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

func NewConfig() *Config {
	loadEnvFile(getEnv("USER_SERVICE_ENV_FILE", DefaultEnvFile))

	etcdEndpointsList, err := checkEtcdEndpointsList(getEnv("USER_SERVICE_ETCD_ADDR_LIST", DefaultEtcdAddrList))
	if err != nil {
		log.Fatal(err)
	}

	return &Config{
		Shop: ShopCfg{
			APIEndpoint:    getEnv("USER_SERVICE_API_ENDPOINT", DefaultAPIEndpoint),
			StoreCode:      getEnv("USER_SERVICE_STORE_CODE", DefaultStoreCode),
			DefaultCountry: getEnv("USER_SERVICE_DEFAULT_COUNTRY", DefaultCountry),
			Timeout:        getEnv("USER_SERVICE_HTTP_TIMEOUT", DefaultHTTPTimeout),
		},
		Server: ServerCfg{
			Host: getEnv("USER_SERVICE_SERVER_HOST", DefaultServerHost),
			Port: getEnv("USER_SERVICE_SERVER_PORT", DefaultServerPort),
			Timeout: ServerTimeout{
				Read:     getEnv("USER_SERVICE_SERVER_READ_TIMEOUT", DefaultServerReadTimeout),
				Write:    getEnv("USER_SERVICE_SERVER_WRITE_TIMEOUT", DefaultServerWriteTimeout),
				Idle:     getEnv("USER_SERVICE_SERVER_IDLE_TIMEOUT", DefaultServerIdleTimeout),
				Shutdown: getEnv("USER_SERVICE_SERVER_SHUTDOWN_TIMEOUT", DefaultServerShutdownTimeout),
			},
		},
		Storage: StorageCfg{
			Type:   getEnv("USER_SERVICE_STORAGE_TYPE", DefaultStorageType),
			Prefix: getEnv("USER_SERVICE_STORAGE_PREFIX", DefaultStoragePrefix),
			Etcd: EtcdCfg{
				EtcdAddrList:         etcdEndpointsList,
				DialTimeout:          getEnv("USER_SERVICE_ETCD_DIAL_TIMEOUT", DefaultEtcdDialTimeout),
				TLSEnabled:           getEnv("USER_SERVICE_ETCD_TLS", DefaultEtcdTLSEnabled),
				ServerCACertPath:     getEnv("USER_SERVICE_CA_CERT_PATH", DefaultEtcdServerCACertPath),
				ServerClientCertPath: getEnv("USER_SERVICE_CLIENT_CERT_PATH", DefaultEtcdServerClientCertPath),
				ServerClientKeyPath:  getEnv("USER_SERVICE_CLIENT_KEY_PATH", DefaultEtcdServerClientKeyPath),
			},
			Redis: RedisCfg{
				Addr:     getEnv("USER_SERVICE_REDIS_ADDR", DefaultRedisAddr),
				Password: getEnv("USER_SERVICE_REDIS_PASSWORD", ""),
				DB:       getEnv("USER_SERVICE_REDIS_DB", DefaultRedisDB),
			},
			SQLite: SQLiteCfg{
				Path: getEnv("USER_SERVICE_SQLITE_PATH", DefaultSQLitePath),
			},
			MySQL: MySQLCfg{
				DSN: getEnv("USER_SERVICE_MYSQL_DSN", ""),
			},
		},
		Cache: CacheCfg{
			Enabled: getEnv("USER_SERVICE_CACHE_ENABLED", DefaultCacheEnabled),
			Size:    getEnv("USER_SERVICE_CACHE_SIZE", DefaultCacheSize),
			TTL:     getEnv("USER_SERVICE_CACHE_TTL", DefaultCacheTTL),
		},
		Debug:     getEnv("USER_SERVICE_DEBUG", bool(DefaultDebugMode)),
		LogFormat: getEnv("USER_SERVICE_LOG_FORMAT", DefaultLogFormat),
	}
}

// Get returns the named shop setting, or "" for unknown names.
func (c *Config) Get(name string) string {
	switch name {
	case NameAPIEndpoint:
		return c.Shop.APIEndpoint
	case NameStoreCode:
		return c.Shop.StoreCode
	default:
		return ""
	}
}

// ListenAddr is the address the HTTP facade binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) DefaultCountry() string {
	return c.Shop.DefaultCountry
}

func getEnv[T any](key string, defaultVal T) T {
	if value, exists := os.LookupEnv(key); exists {
		switch any(defaultVal).(type) {
		case string:
			return any(value).(T)
		case int:
			if intVal, err := strconv.Atoi(value); err == nil {
				return any(intVal).(T)
			}
		case bool:
			if boolVal, err := strconv.ParseBool(value); err == nil {
				return any(boolVal).(T)
			}
		case time.Duration:
			if durationVal, err := time.ParseDuration(value); err == nil {
				return any(durationVal).(T)
			}
		}
	}

	return defaultVal
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warnf("Failed to load env file %v: %v", path, err)
	}
}

func checkEtcdEndpointsList(etcdEndpointsList string) ([]string, error) {
	etcdEndpoints := strings.Split(etcdEndpointsList, ",")
	if len(etcdEndpoints) == 0 {
		return nil, fmt.Errorf("no etcd endpoints provided")
	}
	if strings.ContainsAny(etcdEndpointsList, ";|") {
		return nil, fmt.Errorf("invalid separator in etcd endpoints. Use comma (,) to separate endpoints")
	}

	for _, endpoint := range etcdEndpoints {
		if endpoint = strings.TrimSpace(endpoint); endpoint == "" {
			return nil, fmt.Errorf("empty etcd endpoint provided")
		}
	}

	return etcdEndpoints, nil
}
