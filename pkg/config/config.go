package config

import (
	goflag "flag"
	"strings"

	flag "github.com/spf13/pflag"
)

type (
	PeerConnect struct {
		Broker  Broker
		Webseed Webseed
	}
	Broker struct {
		Debug      bool
		Server     Server
		Monitoring Monitoring
		Peering    Peering
		Geo        Geo
		Origin     string
	}
	Server struct {
		Address string
		Https   bool
		Tls     struct {
			Address   string
			Domain    string
			HttpsCert string
			HttpsKey  string
		}
	}
	Monitoring struct {
		Port             int
		URLPrefix        string
		MetricEnabled    bool
		ProfilingEnabled bool
	}
	Peering struct {
		Threshold      int
		FoldLoading    bool
		PeerImages     bool
		PeerVideos     bool
		ExcludeFormats []string
	}
	Geo struct {
		Enabled    bool
		Endpoint   string
		FallbackIP string
		TimeoutSec int
	}
	Webseed struct {
		Domain     string
		VideoDir   string
		TorrentDir string
	}
)

// imageTypes is the fixed list of peerable image formats.
var imageTypes = []string{"jpeg", "jpg", "png", "gif"}

func (m Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

// AssetTypes derives the peerable formats: the fixed image-type list minus
// the excluded formats, or nothing at all when image peering is off.
func (p Peering) AssetTypes() []string {
	if !p.PeerImages {
		return []string{}
	}
	excluded := make(map[string]struct{}, len(p.ExcludeFormats))
	for _, f := range p.ExcludeFormats {
		excluded[strings.ToLower(f)] = struct{}{}
	}
	types := make([]string, 0, len(imageTypes))
	for _, t := range imageTypes {
		if _, ok := excluded[t]; !ok {
			types = append(types, t)
		}
	}
	return types
}

// NewConfig loads the config file (optionally from the path param) with
// default fallback values.
func NewConfig(path string) (conf PeerConnect, err error) {
	err = LoadConfig(&conf, path)
	return
}

func (c *PeerConnect) ParseFlags() {
	c.Broker.AddFlags(flag.CommandLine)
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.Parse()
}

func (b *Broker) AddFlags(fs *flag.FlagSet) *Broker {
	fs.BoolVar(&b.Debug, "debug", b.Debug, "Enable debug logging")
	fs.StringVar(&b.Server.Address, "address", b.Server.Address, "HTTP server address (host:port)")
	fs.IntVar(&b.Peering.Threshold, "threshold", b.Peering.Threshold, "Max simultaneous initiators before new clients become receivers")
	fs.BoolVar(&b.Geo.Enabled, "geolocate", b.Geo.Enabled, "Enable geolocation-based nearest-peer matching")
	fs.BoolVar(&b.Peering.PeerImages, "peerImages", b.Peering.PeerImages, "Enable image asset peering")
	fs.BoolVar(&b.Peering.PeerVideos, "peerVideos", b.Peering.PeerVideos, "Enable video/torrent webseed bootstrap")
	return b
}
