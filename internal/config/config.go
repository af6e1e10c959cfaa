package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port        string   `mapstructure:"port"`
		Env         string   `mapstructure:"env"`
		LogLevel    string   `mapstructure:"log_level"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"app"`
	Store struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"store"`
	Blob struct {
		Backend string `mapstructure:"backend"`
		Folder  string `mapstructure:"folder"`
	} `mapstructure:"blob"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`
	Firebase struct {
		CredentialsPath string `mapstructure:"credentials_path"`
		ProjectID       string `mapstructure:"project_id"`
		StorageBucket   string `mapstructure:"storage_bucket"`
	} `mapstructure:"firebase"`
	Redis struct {
		Addr      string        `mapstructure:"addr"`
		Password  string        `mapstructure:"password"`
		RenderTTL time.Duration `mapstructure:"render_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		Provider      string        `mapstructure:"provider"`
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Session struct {
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"session"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
	Audit struct {
		Schedule string `mapstructure:"schedule"`
	} `mapstructure:"audit"`
	Public struct {
		RateLimit float64 `mapstructure:"rate_limit"`
		Burst     int     `mapstructure:"burst"`
	} `mapstructure:"public"`
}

const (
	BackendFirestore  = "firestore"
	BackendMongo      = "mongo"
	BackendPostgres   = "postgres"
	BackendMemory     = "memory"
	BackendFirebase   = "firebase"
	BackendCloudinary = "cloudinary"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

// LoadConfig reads config.yaml from the given directories (default ".") and
// overlays environment variables.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, strings.TrimSuffix(p, "/")+"/.env")
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.log_level", "LOG_LEVEL")
	v.BindEnv("app.cors_origins", "CORS_ORIGINS")
	v.BindEnv("store.backend", "STORE_BACKEND")
	v.BindEnv("blob.backend", "BLOB_BACKEND")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.database", "MONGO_DATABASE")
	v.BindEnv("firebase.credentials_path", "FIREBASE_CREDENTIALS_PATH")
	v.BindEnv("firebase.project_id", "FIREBASE_PROJECT_ID")
	v.BindEnv("firebase.storage_bucket", "FIREBASE_STORAGE_BUCKET")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.render_ttl", "REDIS_RENDER_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.provider", "AUTH_PROVIDER")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	v.BindEnv("session.idle_timeout", "SESSION_IDLE_TIMEOUT")
	v.BindEnv("jaeger.otlp_endpoint", "OTLP_ENDPOINT")
	v.BindEnv("audit.schedule", "AUDIT_SCHEDULE")

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("cannot decode config: %w", err)
	}
	err = cfg.Validate()
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("store.backend", BackendFirestore)
	v.SetDefault("blob.backend", BackendFirebase)
	v.SetDefault("blob.folder", "portfolios")
	v.SetDefault("mongo.database", "portgen")
	v.SetDefault("redis.render_ttl", 5*time.Minute)
	v.SetDefault("kafka.group_id", "portfolio-audit-group")
	v.SetDefault("auth.provider", AuthFirebase)
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("audit.schedule", "0 0 3 * * *")
	v.SetDefault("public.rate_limit", 20.0)
	v.SetDefault("public.burst", 40)
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendFirestore, BackendMongo, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Blob.Backend {
	case BackendFirebase, BackendCloudinary, BackendMemory:
	default:
		return fmt.Errorf("unknown blob.backend %q", c.Blob.Backend)
	}
	switch c.Auth.Provider {
	case AuthFirebase:
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for the jwt provider")
		}
	default:
		return fmt.Errorf("unknown auth.provider %q", c.Auth.Provider)
	}
	if c.Store.Backend == BackendPostgres && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required for the postgres store")
	}
	if c.Store.Backend == BackendMongo && c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required for the mongo store")
	}
	return nil
}

// NeedsFirebase reports whether any configured component talks to Firebase.
func (c Config) NeedsFirebase() bool {
	return c.Store.Backend == BackendFirestore || c.Blob.Backend == BackendFirebase || c.Auth.Provider == AuthFirebase
}
