package infra

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultRedisHost    = "localhost"
	defaultRedisPort    = "6379"
	defaultRedisTimeout = 5 * time.Second
)

type RedisClientOptions struct {
	// URL aceita host, host:port ou redis[s]://[user:pass@]host[:port][/db].
	URL      string
	Password string
	Timeout  time.Duration
}

type RedisEndpoint struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// ParseRedisURL extrai host:port (porta padrão 6379) de uma URL de Redis.
// Vazio aponta para localhost:6379.
func ParseRedisURL(raw string) RedisEndpoint {
	ep := RedisEndpoint{Addr: net.JoinHostPort(defaultRedisHost, defaultRedisPort)}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ep
	}

	if scheme, rest, ok := strings.Cut(raw, "://"); ok {
		ep.TLS = strings.EqualFold(scheme, "rediss")
		raw = rest
	}
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		if _, pass, ok := strings.Cut(raw[:i], ":"); ok {
			ep.Password = pass
		}
		raw = raw[i+1:]
	}
	if hostport, path, ok := strings.Cut(raw, "/"); ok {
		raw = hostport
		if db, err := strconv.Atoi(path); err == nil && db >= 0 {
			ep.DB = db
		}
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		// sem porta
		host, port = strings.Trim(raw, "[]"), defaultRedisPort
	}
	if host == "" {
		host = defaultRedisHost
	}
	if port == "" {
		port = defaultRedisPort
	}
	ep.Addr = net.JoinHostPort(host, port)
	return ep
}

// NewRedisClient conecta e faz ping imediatamente. Em qualquer falha registra o
// erro e devolve nil: quem chama deve tratar o Redis como indisponível.
func NewRedisClient(ctx context.Context, opts RedisClientOptions, log logrus.FieldLogger) *redis.Client {
	ep := ParseRedisURL(opts.URL)
	if opts.Password != "" {
		ep.Password = opts.Password
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	ro := &redis.Options{
		Addr:         ep.Addr,
		Password:     ep.Password,
		DB:           ep.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	if ep.TLS {
		host, _, _ := net.SplitHostPort(ep.Addr)
		ro.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}
	rdb := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithFields(logrus.Fields{
			"addr":  ep.Addr,
			"db":    ep.DB,
			"error": err.Error(),
		}).Error("failed to connect to redis")
		_ = rdb.Close()
		return nil
	}

	log.WithFields(logrus.Fields{
		"addr": ep.Addr,
		"db":   ep.DB,
	}).Info("redis connected successfully")
	return rdb
}
