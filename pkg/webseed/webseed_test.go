package webseed

import (
	stdos "os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	conf := config.Webseed{
		Domain:     "http://localhost:8000",
		VideoDir:   filepath.Join(dir, "video"),
		TorrentDir: filepath.Join(dir, "torrent"),
	}
	return NewStore(conf, logger.Default())
}

func writeVideo(t *testing.T, dir, name string) {
	t.Helper()
	if err := stdos.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := stdos.WriteFile(filepath.Join(dir, name), []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanGeneratesTorrents(t *testing.T) {
	s := testStore(t)
	writeVideo(t, s.conf.VideoDir, "intro.mp4")
	writeVideo(t, s.conf.VideoDir, "outro.webm")
	writeVideo(t, s.conf.VideoDir, "notes.txt")

	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}

	want := []string{"intro.torrent", "outro.torrent"}
	if got := s.Torrents(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Torrents() = %v, want %v", got, want)
	}
	for _, name := range want {
		if _, err := stdos.Stat(filepath.Join(s.conf.TorrentDir, name)); err != nil {
			t.Errorf("missing torrent file %v: %v", name, err)
		}
	}
}

func TestScanCreatesMissingDirs(t *testing.T) {
	s := testStore(t)
	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}
	if got := s.Torrents(); len(got) != 0 {
		t.Fatalf("expected no torrents in an empty dir, got %v", got)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	s := testStore(t)
	writeVideo(t, s.conf.VideoDir, "clip.mkv")

	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}
	first, err := stdos.Stat(filepath.Join(s.conf.TorrentDir, "clip.torrent"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}
	second, err := stdos.Stat(filepath.Join(s.conf.TorrentDir, "clip.torrent"))
	if err != nil {
		t.Fatal(err)
	}
	if !first.ModTime().Equal(second.ModTime()) {
		t.Error("a rescan must not regenerate existing torrents")
	}
}
