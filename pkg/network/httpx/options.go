package httpx

import (
	"time"

	"github.com/peerconnect/peerconnect/pkg/logger"
)

type (
	Options struct {
		Https                bool
		HttpsRedirect        bool
		HttpsRedirectAddress string
		HttpsCert            string
		HttpsKey             string
		HttpsDomain          string
		PortRoll             bool
		IdleTimeout          time.Duration
		ReadTimeout          time.Duration
		WriteTimeout         time.Duration
		Logger               *logger.Logger
	}
	Option func(*Options)
)

func (o *Options) override(options ...Option) {
	for _, opt := range options {
		opt(o)
	}
}

func (o *Options) IsAutoHttpsCert() bool { return !(o.HttpsCert != "" && o.HttpsKey != "") }

func HttpsRedirect(redirect bool) Option {
	return func(opts *Options) { opts.HttpsRedirect = redirect }
}

func WithPortRoll(roll bool) Option        { return func(opts *Options) { opts.PortRoll = roll } }
func WithLogger(log *logger.Logger) Option { return func(opts *Options) { opts.Logger = log } }
func WithHttps(https bool) Option          { return func(opts *Options) { opts.Https = https } }
func WithHttpsCert(cert, key string) Option {
	return func(opts *Options) { opts.HttpsCert = cert; opts.HttpsKey = key }
}
func WithHttpsDomain(domain string) Option { return func(opts *Options) { opts.HttpsDomain = domain } }
func WithHttpsRedirectAddress(address string) Option {
	return func(opts *Options) { opts.HttpsRedirectAddress = address }
}
