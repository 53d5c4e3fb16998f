// Package webseed generates and serves .torrent files for the broker's
// video assets, with the video files themselves exposed as webseeds.
package webseed

import (
	"context"
	"net/http"
	stdos "os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/fsnotify/fsnotify"
	"github.com/peerconnect/peerconnect/pkg/com"
	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/logger"
	"github.com/peerconnect/peerconnect/pkg/network/httpx"
	"github.com/peerconnect/peerconnect/pkg/os"
)

const pieceLength = 256 * 1024

var videoExtensions = map[string]struct{}{".mp4": {}, ".webm": {}, ".mkv": {}}

// Store owns the torrent files generated for the videos in the
// configured directory and keeps them fresh when files appear.
type Store struct {
	conf     config.Webseed
	log      *logger.Logger
	torrents com.Map[string, string] // torrent name to its file path

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewStore(conf config.Webseed, log *logger.Logger) *Store {
	return &Store{
		conf:     conf,
		log:      log,
		torrents: com.NewMap[string, string](),
		done:     make(chan struct{}),
	}
}

// Scan walks the video directory and generates missing torrent files.
func (s *Store) Scan() error {
	if err := os.CheckCreateDir(s.conf.VideoDir); err != nil {
		return err
	}
	if err := os.CheckCreateDir(s.conf.TorrentDir); err != nil {
		return err
	}
	entries, err := stdos.ReadDir(s.conf.VideoDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := s.add(entry.Name()); err != nil {
			s.log.Error().Err(err).Msgf("couldn't add video %v", entry.Name())
		}
	}
	return nil
}

// Torrents lists the generated torrent file names in a stable order.
func (s *Store) Torrents() []string {
	var names []string
	s.torrents.ForEach(func(path string) { names = append(names, filepath.Base(path)) })
	sort.Strings(names)
	return names
}

// VideoHandler serves the raw video files referenced as webseeds.
func (s *Store) VideoHandler() http.Handler {
	return http.StripPrefix("/video/", httpx.FileServer(s.conf.VideoDir))
}

// TorrentHandler serves the generated .torrent files.
func (s *Store) TorrentHandler() http.Handler {
	return http.StripPrefix("/torrent/", httpx.FileServer(s.conf.TorrentDir))
}

// Run watches the video directory and regenerates torrents for new files.
func (s *Store) Run() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Error().Err(err).Msg("couldn't start the video dir watcher")
		return
	}
	if err := watcher.Add(s.conf.VideoDir); err != nil {
		s.log.Error().Err(err).Msgf("couldn't watch %v", s.conf.VideoDir)
		_ = watcher.Close()
		return
	}
	s.watcher = watcher
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				name := filepath.Base(event.Name)
				if err := s.add(name); err != nil {
					s.log.Error().Err(err).Msgf("couldn't add video %v", name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Error().Err(err).Msg("video dir watch fail")
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Store) Shutdown(_ context.Context) error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Store) String() string { return "webseed::" + s.conf.VideoDir }

// add generates a torrent for the video file unless one is present already.
func (s *Store) add(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := videoExtensions[ext]; !ok {
		return nil
	}
	torrentName := strings.TrimSuffix(name, filepath.Ext(name)) + ".torrent"
	torrentPath := filepath.Join(s.conf.TorrentDir, torrentName)
	if os.Exists(torrentPath) {
		s.torrents.Put(torrentName, torrentPath)
		return nil
	}
	if err := s.createTorrent(name, torrentPath); err != nil {
		return err
	}
	s.torrents.Put(torrentName, torrentPath)
	s.log.Info().Msgf("torrent %v", torrentName)
	return nil
}

func (s *Store) createTorrent(videoName, torrentPath string) error {
	info := metainfo.Info{PieceLength: pieceLength}
	if err := info.BuildFromFilePath(filepath.Join(s.conf.VideoDir, videoName)); err != nil {
		return err
	}
	infoBytes, err := bencode.Marshal(info)
	if err != nil {
		return err
	}
	mi := metainfo.MetaInfo{
		InfoBytes:    infoBytes,
		CreationDate: time.Now().Unix(),
		UrlList:      metainfo.UrlList{s.conf.Domain + "/video/" + videoName},
	}
	f, err := stdos.Create(torrentPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return mi.Write(f)
}
