package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/network/httpx"
	"github.com/peerconnect/peerconnect/pkg/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Monitoring struct {
	service.RunnableService

	conf   config.Monitoring
	log    *logger.Logger
	server *httpx.Server
}

// New creates a new monitoring service.
// The tag param specifies the owner label for logs.
func New(conf config.Monitoring, tag string, log *logger.Logger) *Monitoring {
	serv, err := httpx.NewServer(
		fmt.Sprintf(":%d", conf.Port),
		func(serv *httpx.Server) http.Handler {
			h := http.NewServeMux()

			if conf.ProfilingEnabled {
				prefix := conf.URLPrefix + "/debug/pprof"
				log.Info().Msgf("[%v] profiling is enabled at %v", tag, serv.Addr+prefix)
				h.HandleFunc(prefix+"/", pprof.Index)
				h.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
				h.HandleFunc(prefix+"/profile", pprof.Profile)
				h.HandleFunc(prefix+"/symbol", pprof.Symbol)
				h.HandleFunc(prefix+"/trace", pprof.Trace)
				// custom pprof paths need explicit handlers, the index
				// page won't link them otherwise
				h.Handle(prefix+"/allocs", pprof.Handler("allocs"))
				h.Handle(prefix+"/block", pprof.Handler("block"))
				h.Handle(prefix+"/goroutine", pprof.Handler("goroutine"))
				h.Handle(prefix+"/heap", pprof.Handler("heap"))
				h.Handle(prefix+"/mutex", pprof.Handler("mutex"))
				h.Handle(prefix+"/threadcreate", pprof.Handler("threadcreate"))
			}

			if conf.MetricEnabled {
				metricPath := conf.URLPrefix + "/metrics"
				log.Info().Msgf("[%v] prometheus metrics are enabled at %v", tag, serv.Addr+metricPath)
				h.Handle(metricPath, promhttp.Handler())
			}

			return h
		},
		httpx.WithPortRoll(true),
		httpx.WithLogger(log),
	)
	if err != nil {
		log.Error().Err(err).Msg("couldn't init the monitoring server")
	}
	return &Monitoring{conf: conf, log: log, server: serv}
}

func (m *Monitoring) Run() {
	if m.server == nil {
		return
	}
	m.log.Info().Msgf("Starting monitoring server at %v", m.server.Addr)
	m.server.Run()
}

func (m *Monitoring) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	m.log.Info().Msg("Shutting down monitoring server")
	return m.server.Shutdown(ctx)
}

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s:%d", m.conf.URLPrefix, m.conf.Port)
}
