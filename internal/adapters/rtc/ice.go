// Package rtc hands browsers the ICE servers to build their peer connections with.
package rtc

import (
	"strings"

	"github.com/dkeye/roomcoord/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var defaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
}

// ClientConfig is the payload served at /api/rtc/config.
type ClientConfig struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

// ICEServers converts configured servers, skipping entries without a usable
// stun/turn URL. An empty result falls back to the public STUN server.
func ICEServers(servers []config.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		urls := make([]string, 0, len(s.URLs))
		for _, u := range s.URLs {
			if validScheme(u) {
				urls = append(urls, u)
			} else {
				log.Warn().Str("module", "rtc").Str("url", u).Msg("skipping ice url")
			}
		}
		if len(urls) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: urls, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	if len(out) == 0 {
		return defaultICEServers
	}
	return out
}

func NewClientConfig(servers []config.ICEServer) ClientConfig {
	return ClientConfig{ICEServers: ICEServers(servers)}
}

func validScheme(u string) bool {
	for _, p := range []string{"stun:", "stuns:", "turn:", "turns:"} {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	return false
}
