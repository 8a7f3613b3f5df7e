package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Build            string
		Env              string // DEV (local; default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridAPIKey   string
		WorkDir          string

		Server   ServerConfig
		Database DatabaseConfig
		Blob     BlobConfig
		NATS     NATSConfig
		Uploads  UploadsConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		DisableReqLogs            bool
		CORSOrigins               []string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		SQLitePath    string
	}

	BlobConfig struct {
		Driver      string // filesystem | s3 | memory
		Root        string
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3PathStyle bool
		S3KeyID     string
		S3SecretKey string
	}

	NATSConfig struct {
		URL           string // empty disables publishing
		SubjectPrefix string
	}

	UploadsConfig struct {
		MaxImageBytes int64
		ImageTypes    []string
	}
)

func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (db DatabaseConfig) IsSQLite() bool {
	return db.Engine == "sqlite"
}

// NewConfig loads the app configuration from defaults, `config/.env.<env>` and the environment.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Koinonia")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "u7#kq2$zlm!0-church-admin-dev-secret-x9w@e4r(t)y")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridAPIKey", "")

	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("debugHost", "localhost:4000")
	conf.SetDefault("disableReqLogs", false)
	conf.SetDefault("corsOrigins", []string{"http://localhost:3000"})
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("shutdownTimeout", 5*time.Second)

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbName", "koinonia")
	conf.SetDefault("dbUser", "koinonia")
	conf.SetDefault("dbPassword", "koinonia")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("dbSQLitePath", "koinonia.db")

	conf.SetDefault("blobDriver", "filesystem")
	conf.SetDefault("blobRoot", "./blobdata")
	conf.SetDefault("blobS3Bucket", "")
	conf.SetDefault("blobS3Region", "us-east-1")
	conf.SetDefault("blobS3Endpoint", "")
	conf.SetDefault("blobS3PathStyle", false)
	conf.SetDefault("blobS3KeyID", "")
	conf.SetDefault("blobS3SecretKey", "")

	conf.SetDefault("natsURL", "")
	conf.SetDefault("natsSubjectPrefix", "koinonia")

	conf.SetDefault("uploadMaxImageBytes", int64(5<<20))
	conf.SetDefault("uploadImageTypes", []string{"image/jpeg", "image/png", "image/webp"})

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
		conf.SetDefault("dbEngine", "sqlite")
		conf.SetDefault("dbSQLitePath", ":memory:")
		conf.SetDefault("blobDriver", "memory")
	}
	conf.SetEnvPrefix(env)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		fromEmail = &mail.Address{Address: conf.GetString("defaultFromEmail")}
	}
	if fromEmail.Name == "" {
		fromEmail.Name = conf.GetString("appName")
	}

	return &Config{
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		Env:              env,
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  strings.TrimSuffix(conf.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail: *fromEmail,
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridAPIKey:   conf.GetString("sendgridAPIKey"),
		WorkDir:          workDir,
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Port:                      conf.GetString("serverPort"),
			DebugHost:                 conf.GetString("debugHost"),
			DisableReqLogs:            conf.GetBool("disableReqLogs"),
			CORSOrigins:               conf.GetStringSlice("corsOrigins"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
			ShutdownTimeout:           conf.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(conf.GetString("dbEngine")),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetString("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
			SQLitePath:    conf.GetString("dbSQLitePath"),
		},
		Blob: BlobConfig{
			Driver:      strings.ToLower(conf.GetString("blobDriver")),
			Root:        conf.GetString("blobRoot"),
			S3Bucket:    conf.GetString("blobS3Bucket"),
			S3Region:    conf.GetString("blobS3Region"),
			S3Endpoint:  conf.GetString("blobS3Endpoint"),
			S3PathStyle: conf.GetBool("blobS3PathStyle"),
			S3KeyID:     conf.GetString("blobS3KeyID"),
			S3SecretKey: conf.GetString("blobS3SecretKey"),
		},
		NATS: NATSConfig{
			URL:           conf.GetString("natsURL"),
			SubjectPrefix: conf.GetString("natsSubjectPrefix"),
		},
		Uploads: UploadsConfig{
			MaxImageBytes: conf.GetInt64("uploadMaxImageBytes"),
			ImageTypes:    conf.GetStringSlice("uploadImageTypes"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory sqlite & blobs, no request logs.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "Koinonia",
		Build:            "test",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Koinonia", Address: "noreply@localhost"},
		Server: ServerConfig{
			Port:                      "8000",
			DisableReqLogs:            true,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Database: DatabaseConfig{Engine: "sqlite", SQLitePath: ":memory:"},
		Blob:     BlobConfig{Driver: "memory"},
		NATS:     NATSConfig{SubjectPrefix: "koinonia"},
		Uploads: UploadsConfig{
			MaxImageBytes: 1 << 20,
			ImageTypes:    []string{"image/jpeg", "image/png", "image/webp"},
		},
	}
}
