package config

import (
	"fmt"
	"net"
	"time"
)

// Config is the root application configuration.
type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Auth          AuthConfig          `yaml:"auth"`
	Services      ServicesConfig      `yaml:"services"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Log           LogConfig           `yaml:"log"`
}

type AppConfig struct {
	Port            string        `yaml:"port"             env:"APP_PORT"             env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"APP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig selects the gorm dialector. sqlite is meant for local runs.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"       env:"DB_DRIVER"       env-default:"mysql"`
	MySQLHost   string `yaml:"mysql_host"   env:"MYSQL_HOST"      env-default:"mysql"`
	MySQLPort   string `yaml:"mysql_port"   env:"MYSQL_PORT"      env-default:"3306"`
	MySQLDB     string `yaml:"mysql_db"     env:"MYSQL_DB"        env-default:"loans"`
	MySQLUser   string `yaml:"mysql_user"   env:"MYSQL_USER"      env-default:"loans"`
	MySQLPass   string `yaml:"mysql_pass"   env:"MYSQL_PASS"      env-default:"loans"`
	SQLitePath  string `yaml:"sqlite_path"  env:"SQLITE_PATH"     env-default:"loans.db"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"false"`
	LogLevel    string `yaml:"log_level"    env:"DB_LOG_LEVEL"    env-default:"warn"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"            env:"REDIS_ADDR"         env-default:"redis:6379"`
	Password       string        `yaml:"password"        env:"REDIS_PASSWORD"`
	DB             int           `yaml:"db"              env:"REDIS_DB"           env-default:"0"`
	PingTimeout    time.Duration `yaml:"ping_timeout"    env:"REDIS_PING_TIMEOUT" env-default:"5s"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" env:"IDEMPOTENCY_TTL"    env-default:"5m"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"loan-lifecycle"`
}

// ServicesConfig points at the collaborators the side effects call.
type ServicesConfig struct {
	UserDirectoryURL  string        `yaml:"user_directory_url" env:"USER_DIRECTORY_URL" env-default:"http://users:8080"`
	DisbursementURL   string        `yaml:"disbursement_url"   env:"DISBURSEMENT_URL"   env-default:"http://payments:8080"`
	SideEffectTimeout time.Duration `yaml:"side_effect_timeout" env:"SIDE_EFFECT_TIMEOUT" env-default:"5s"`
}

type NotificationsConfig struct {
	// Mode is "log" or "redis".
	Mode     string `yaml:"mode"      env:"NOTIFY_MODE"      env-default:"log"`
	QueueKey string `yaml:"queue_key" env:"NOTIFY_QUEUE_KEY" env-default:"mail:outbox"`
}

type ScheduleConfig struct {
	// OverdueSweep is how often pending installments past due are marked late; 0 disables it.
	OverdueSweep time.Duration `yaml:"overdue_sweep" env:"OVERDUE_SWEEP_INTERVAL" env-default:"1h"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

func (c *DatabaseConfig) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *DatabaseConfig) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
