package cliparse

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Database types
const (
	DatabasePostgres = "postgres"
	DatabaseMySQL    = "mysql"
	DatabaseSQLite   = "sqlite"
)

// Delivery validation policies
const (
	DeliveryPolicyFlag    = "flag"
	DeliveryPolicyExclude = "exclude"
)

type Config struct {
	Port int

	DatabaseType string
	DatabaseURL  string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string

	DataDir          string
	ScheduleInterval time.Duration
	DeliveryPolicy   string
	LockFile         string
	RunOnStart       bool
	RetryAttempts    int
	RetryDelay       time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading env file %s", path)
	}
	return nil
}

// RegisterFlags binds every setting to fs. Zero values mean "not set on the
// command line" and are filled from the environment by Resolve.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Port, "port", "p", 0, "API server port")

	fs.StringVarP(&cfg.DatabaseType, "db-type", "t", "", "Database type (postgres, mysql or sqlite)")
	fs.StringVarP(&cfg.DatabaseURL, "db-url", "d", "", "Database URL / DSN (overrides host settings)")
	fs.StringVar(&cfg.DBHost, "db-host", "", "Database host")
	fs.IntVar(&cfg.DBPort, "db-port", 0, "Database port")
	fs.StringVar(&cfg.DBUser, "db-user", "", "Database user")
	fs.StringVar(&cfg.DBPassword, "db-password", "", "Database password (prefer env)")
	fs.StringVar(&cfg.DBName, "db-name", "", "Database name")

	fs.StringVar(&cfg.DataDir, "data-dir", "", "Directory holding the source CSV files")
	fs.DurationVar(&cfg.ScheduleInterval, "interval", 0, "Pipeline schedule interval")
	fs.StringVar(&cfg.DeliveryPolicy, "delivery-policy", "", "Delivered-before-purchase policy (flag or exclude)")
	fs.StringVar(&cfg.LockFile, "lock-file", "", "Advisory lock file guarding pipeline runs")
	fs.BoolVar(&cfg.RunOnStart, "run-on-start", false, "Run the pipeline once when the scheduler starts")
	fs.IntVar(&cfg.RetryAttempts, "retries", -1, "Retry attempts for a failed scheduled run")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", 0, "Delay between retries")

	fs.StringSliceVar(&cfg.KafkaBrokers, "kafka-brokers", nil, "Kafka brokers for run events")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "", "Kafka topic for run events")
}

// ParseFlags parses args and resolves the remaining settings from env.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("olist-etl", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := Resolve(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve fills unset fields from environment variables and defaults, then
// validates the result.
func Resolve(cfg *Config) error {
	var err error

	if cfg.Port == 0 {
		if cfg.Port, err = envInt("PORT", 8000); err != nil {
			return err
		}
	}

	// Database
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envString("DATABASE_TYPE", DatabaseSQLite)
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	switch cfg.DatabaseType {
	case DatabasePostgres, DatabaseMySQL, DatabaseSQLite:
	default:
		return errors.Newf("unsupported database type %q", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DBHost == "" {
		cfg.DBHost = envString("DB_HOST", "localhost")
	}
	if cfg.DBPort == 0 {
		if cfg.DBPort, err = envInt("DB_PORT", 0); err != nil {
			return err
		}
	}
	if cfg.DBUser == "" {
		cfg.DBUser = os.Getenv("DB_USER")
	}
	if cfg.DBPassword == "" {
		cfg.DBPassword = os.Getenv("DB_PASSWORD")
	}
	if cfg.DBName == "" {
		cfg.DBName = envString("DB_NAME", "olist_db")
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseType == DatabaseSQLite {
		cfg.DatabaseURL = "file:" + cfg.DBName + ".db"
	}
	if cfg.DatabaseURL == "" && cfg.DBUser == "" {
		return errors.New("database URL or DB_USER required (use -d, DATABASE_URL or DB_USER)")
	}

	// Pipeline
	if cfg.DataDir == "" {
		cfg.DataDir = envString("DATA_DIR", "data")
	}
	if cfg.ScheduleInterval == 0 {
		if cfg.ScheduleInterval, err = envDuration("SCHEDULE_INTERVAL", time.Hour); err != nil {
			return err
		}
	}
	if cfg.ScheduleInterval < time.Second {
		return errors.Newf("schedule interval %s is too short", cfg.ScheduleInterval)
	}
	if cfg.DeliveryPolicy == "" {
		cfg.DeliveryPolicy = envString("DELIVERY_POLICY", DeliveryPolicyFlag)
	}
	switch cfg.DeliveryPolicy {
	case DeliveryPolicyFlag, DeliveryPolicyExclude:
	default:
		return errors.Newf("invalid delivery policy %q (want flag or exclude)", cfg.DeliveryPolicy)
	}
	if cfg.LockFile == "" {
		cfg.LockFile = envString("LOCK_FILE", filepath.Join(os.TempDir(), "olist-etl.lock"))
	}
	if !cfg.RunOnStart {
		if v := os.Getenv("RUN_ON_START"); v != "" {
			if cfg.RunOnStart, err = strconv.ParseBool(v); err != nil {
				return errors.New("invalid RUN_ON_START env variable")
			}
		}
	}
	if cfg.RetryAttempts < 0 {
		if cfg.RetryAttempts, err = envInt("RETRY_ATTEMPTS", 3); err != nil {
			return err
		}
	}
	if cfg.RetryDelay == 0 {
		if cfg.RetryDelay, err = envDuration("RETRY_DELAY", 10*time.Second); err != nil {
			return err
		}
	}

	// Run events (optional)
	if len(cfg.KafkaBrokers) == 0 {
		if v := os.Getenv("KAFKA_BROKERS"); v != "" {
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
				}
			}
		}
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = envString("KAFKA_TOPIC", "olist-pipeline-runs")
	}

	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Newf("invalid %s env variable", key)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Newf("invalid %s env variable", key)
	}
	return d, nil
}
