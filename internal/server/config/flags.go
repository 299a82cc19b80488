package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/arcms/internal/flagx"
	"github.com/dmitrijs2005/arcms/internal/timex"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags (short forms):
//
//	-a string   host:port to listen on (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   access token HMAC secret
//	-rs string  refresh token HMAC secret
//	-t string   access token lifetime ("15m", "1h")
//	-r string   refresh token lifetime ("7d", "168h")
//	-u string   R2 access key id
//	-p string   R2 secret access key
//	-b string   R2 bucket name
//	-e string   R2 endpoint (e.g., "http://127.0.0.1:9000")
//	-v string   public viewer URL
//	-o string   comma separated CORS origins
//	-l string   log level
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-rs", "-t", "-r", "-u", "-p", "-b", "-e", "-v", "-o", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	addr := fs.String("a", "", "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "access token secret")
	fs.StringVar(&config.JWTRefreshSecret, "rs", config.JWTRefreshSecret, "refresh token secret")
	fs.Func("t", "access token lifetime", durationFlag(&config.AccessTokenValidityDuration))
	fs.Func("r", "refresh token lifetime", durationFlag(&config.RefreshTokenValidityDuration))
	fs.StringVar(&config.R2AccessKeyID, "u", config.R2AccessKeyID, "R2 access key id")
	fs.StringVar(&config.R2SecretAccessKey, "p", config.R2SecretAccessKey, "R2 secret access key")
	fs.StringVar(&config.R2Bucket, "b", config.R2Bucket, "R2 bucket")
	fs.StringVar(&config.R2Endpoint, "e", config.R2Endpoint, "R2 endpoint")
	fs.StringVar(&config.ViewerURL, "v", config.ViewerURL, "viewer URL")
	fs.Func("o", "comma separated CORS origins", func(s string) error {
		config.AllowedOrigins = splitList(s)
		return nil
	})
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *addr != "" {
		host, port, err := net.SplitHostPort(*addr)
		if err != nil {
			return err
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return err
		}
		config.Host = host
		config.Port = p
	}

	return nil
}

func durationFlag(dst *time.Duration) func(string) error {
	return func(s string) error {
		d, err := timex.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
