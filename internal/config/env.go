package config

import (
	"fmt"
	"strconv"
)

const (
	envHTTPAddr      = "RENTALAUTH_HTTP_ADDR"
	envLogLevel      = "RENTALAUTH_LOG_LEVEL"
	envRedisAddr     = "RENTALAUTH_REDIS_ADDR"
	envRedisPassword = "RENTALAUTH_REDIS_PASSWORD"
	envRedisDB       = "RENTALAUTH_REDIS_DB"
	envDatabaseDSN   = "RENTALAUTH_DATABASE_DSN"
	envAMQPURL       = "RENTALAUTH_AMQP_URL"
	envJWTSecret     = "RENTALAUTH_JWT_SECRET"
	envJWTIssuer     = "RENTALAUTH_JWT_ISSUER"
	envClaimsKey     = "RENTALAUTH_JWT_CLAIMS_KEY"
	envClaimsIV      = "RENTALAUTH_JWT_CLAIMS_IV"
	envAccessTTL     = "RENTALAUTH_ACCESS_TTL"
	envRefreshTTL    = "RENTALAUTH_REFRESH_TTL"
	envAdminSecret   = "RENTALAUTH_ADMIN_SECRET"
	envFailClosed    = "RENTALAUTH_FAIL_CLOSED"
	envThrottle      = "RENTALAUTH_LOGIN_THROTTLE"

	envSecretID     = "AWS_SECRETS_MANAGER_SECRET_ID"
	envSecretRegion = "AWS_SECRETS_MANAGER_REGION"
)

func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	bytes := func(key string, dst *[]byte) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = []byte(v)
		}
	}

	str(envHTTPAddr, &s.HTTPAddr)
	str(envLogLevel, &s.LogLevel)
	str(envRedisAddr, &s.RedisAddr)
	str(envRedisPassword, &s.RedisPassword)
	str(envDatabaseDSN, &s.DatabaseDSN)
	str(envAMQPURL, &s.AMQPURL)
	str(envJWTIssuer, &s.Auth.JWT.Issuer)
	str(envAdminSecret, &s.Auth.Admin.SharedSecret)
	bytes(envJWTSecret, &s.Auth.JWT.Secret)
	bytes(envClaimsKey, &s.Auth.JWT.ClaimsKey)
	bytes(envClaimsIV, &s.Auth.JWT.ClaimsIV)

	if v, ok := lookup(envRedisDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envRedisDB, err)
		}
		s.RedisDB = db
	}
	if v, ok := lookup(envFailClosed); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envFailClosed, err)
		}
		s.Auth.ForceExpire.FailClosed = b
	}
	if v, ok := lookup(envThrottle); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envThrottle, err)
		}
		s.Auth.Throttle.Enabled = b
	}
	if v, ok := lookup(envAccessTTL); ok {
		if err := setDuration(&s.Auth.JWT.AccessTTL, v); err != nil {
			return fmt.Errorf("%s: %w", envAccessTTL, err)
		}
	}
	if v, ok := lookup(envRefreshTTL); ok {
		if err := setDuration(&s.Auth.JWT.RefreshTTL, v); err != nil {
			return fmt.Errorf("%s: %w", envRefreshTTL, err)
		}
	}
	return nil
}
