package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper). It is built once in
// main and passed down explicitly.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver      string // mongo | postgres | sqlite
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string // postgres DSN
	SQLitePath    string
	RedisURL      string

	JWTSecret    string
	JWTExpiresIn time.Duration
	SaltRounds   int

	ClientURL      string
	HealthAdminKey string

	ImageHost  string // cloudinary | s3
	Cloudinary CloudinaryConfig
	S3         S3Config

	GoogleMapsAPIKey string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// IsProduction reports whether the server runs with production error masking and secure cookies.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "3546")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "mongo")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/marketplace")
	v.SetDefault("SQLITE_PATH", "marketplace.db")
	v.SetDefault("JWT_EXPIRES_IN", "1h")
	v.SetDefault("SALT_ROUNDS", 10)
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("IMAGE_HOST", "cloudinary")

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	env := v.GetString("APP_ENV")
	if env == "" {
		env = v.GetString("NODE_ENV")
	}
	if env == "" {
		env = "development"
	}

	port := v.GetString("PORT")
	if port == "" {
		port = "3546"
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER")))
	if driver == "" {
		driver = "mongo"
	}
	switch driver {
	case "mongo", "postgres", "sqlite":
	default:
		return nil, errors.New("config: DB_DRIVER must be one of mongo, postgres, sqlite")
	}

	mongoURI := v.GetString("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017/marketplace"
	}
	mongoDB := v.GetString("MONGO_DATABASE")
	if mongoDB == "" {
		mongoDB = databaseFromURI(mongoURI)
	}

	if driver == "postgres" && v.GetString("DATABASE_URL") == "" {
		return nil, errors.New("config: DATABASE_URL is required when DB_DRIVER=postgres")
	}

	expires := time.Hour
	if raw := v.GetString("JWT_EXPIRES_IN"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, errors.New("config: JWT_EXPIRES_IN must be a positive duration such as 1h")
		}
		expires = d
	}

	secret := v.GetString("JWT_SECRET_KEY")
	if secret == "" {
		if env != "development" {
			return nil, errors.New("config: JWT_SECRET_KEY is required outside development")
		}
		secret = randomSecret()
	}

	rounds := v.GetInt("SALT_ROUNDS")
	if rounds <= 0 {
		rounds = 10
	}

	return &Config{
		Env:              env,
		Port:             port,
		LogLevel:         v.GetString("LOG_LEVEL"),
		DBDriver:         driver,
		MongoURI:         mongoURI,
		MongoDatabase:    mongoDB,
		DatabaseURL:      v.GetString("DATABASE_URL"),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		RedisURL:         v.GetString("REDIS_URL"),
		JWTSecret:        secret,
		JWTExpiresIn:     expires,
		SaltRounds:       rounds,
		ClientURL:        strings.TrimRight(v.GetString("CLIENT_URL"), "/"),
		HealthAdminKey:   v.GetString("HEALTH_ADMIN_KEY"),
		ImageHost:        strings.ToLower(v.GetString("IMAGE_HOST")),
		GoogleMapsAPIKey: v.GetString("GOOGLE_MAPS_API_KEY"),
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    v.GetString("CLOUDINARY_API_KEY"),
			APISecret: v.GetString("CLOUDINARY_API_SECRET"),
		},
		S3: S3Config{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
			PublicURL: v.GetString("S3_PUBLIC_URL"),
		},
	}, nil
}

// databaseFromURI returns the path segment of a mongodb:// URI, or "marketplace".
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "marketplace"
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return "marketplace"
	}
	return name
}

func randomSecret() string {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		panic("config: generate jwt secret: " + err.Error())
	}
	return hex.EncodeToString(b)
}
