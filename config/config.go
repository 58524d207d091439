package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const minJWTSecretLen = 32

type (
	APP struct {
		Name           string
		Host           string
		Port           string
		Env            string
		JWTSecret      string
		JWTExpiresDays int
		ClientURL      string
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
	}
	S3 struct {
		Endpoint        string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		UseSSL          bool
		PublicBaseURL   string
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Redis struct {
		Addr          string
		Password      string
		DB            int
		LimitRequests int
		LimitWindow   time.Duration
	}
	BgRemoval struct {
		URL     string
		Timeout time.Duration
	}

	Config struct {
		App       APP
		DB        DB
		S3        S3
		MQ        MQ
		Redis     Redis
		BgRemoval BgRemoval
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func Load() Config {
	app := APP{
		Name:           getEnv("SERVICE_NAME", "galleryapi"),
		Host:           getEnv("SERVICE_HOST", ""),
		Port:           getEnv("SERVICE_PORT", "3001"),
		Env:            getEnv("SERVICE_ENV", "development"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 7),
		ClientURL:      getEnv("CLIENT_URL", "http://localhost:3000"),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", "5432"),
	}
	s3 := S3{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", "gallery-uploads"),
		UseSSL:          getEnvBool("S3_USE_SSL", false),
		PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", "5672"),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "gallery"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "gallery.bg_removal"),
	}
	rds := Redis{
		Addr:          getEnv("REDIS_ADDR", ""),
		Password:      getEnv("REDIS_PASSWORD", ""),
		DB:            getEnvInt("REDIS_DB", 0),
		LimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
		LimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
	bg := BgRemoval{
		URL:     getEnv("BG_REMOVAL_URL", "http://localhost:5000/predict"),
		Timeout: getEnvDuration("BG_REMOVAL_TIMEOUT", 60*time.Second),
	}

	return Config{
		App:       app,
		DB:        db,
		S3:        s3,
		MQ:        mq,
		Redis:     rds,
		BgRemoval: bg,
	}
}

func (c Config) IsProduction() bool {
	switch c.App.Env {
	case "release", "prod", "production":
		return true
	}
	return false
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.App.Port == "" {
		errs = append(errs, errors.New("SERVICE_PORT is required"))
	}
	if c.App.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.App.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters in production", minJWTSecretLen))
	}
	if c.App.JWTExpiresDays <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_DAYS must be positive"))
	}
	if _, err := url.ParseRequestURI(c.App.ClientURL); err != nil {
		errs = append(errs, errors.New("CLIENT_URL must be a valid URL"))
	}

	return errors.Join(errs...)
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.App.JWTExpiresDays) * 24 * time.Hour
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
