package httpx

import "golang.org/x/crypto/acme/autocert"

type autoCertManager struct {
	*autocert.Manager
}

func newTLSConfig(host string) *autoCertManager {
	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache("assets/cache"),
	}
	if host != "" {
		m.HostPolicy = autocert.HostWhitelist(host)
	}
	return &autoCertManager{m}
}
