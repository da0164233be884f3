package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/pion/webrtc/v3"

	"codecollab/internal/models"
)

var defaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// GetWebRTCConfig returns the peer connection configuration browsers use for
// the video, voice and screen-share features. STUN_SERVERS is a comma
// separated override; TURN_URL, TURN_USERNAME and TURN_PASSWORD add a relay.
func GetWebRTCConfig() webrtc.Configuration {
	stunServers := defaultSTUNServers
	if custom := os.Getenv("STUN_SERVERS"); custom != "" {
		stunServers = nil
		for _, s := range strings.Split(custom, ",") {
			if s = strings.TrimSpace(s); s != "" {
				stunServers = append(stunServers, s)
			}
		}
	}

	var iceServers []webrtc.ICEServer
	for _, stun := range stunServers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs: []string{stun},
		})
	}

	if turnURL := os.Getenv("TURN_URL"); turnURL != "" {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:           []string{turnURL},
			Username:       os.Getenv("TURN_USERNAME"),
			Credential:     os.Getenv("TURN_PASSWORD"),
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}

	return webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
		BundlePolicy:       webrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy:      webrtc.RTCPMuxPolicyRequire,
	}
}

// ClientWebRTCConfig converts cfg to the JSON shape browsers pass to
// RTCPeerConnection.
func ClientWebRTCConfig(cfg webrtc.Configuration) models.WebRTCConfig {
	out := models.WebRTCConfig{ICEServers: make([]models.ICEServer, 0, len(cfg.ICEServers))}
	for _, s := range cfg.ICEServers {
		server := models.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != nil {
			server.Credential = fmt.Sprint(s.Credential)
		}
		out.ICEServers = append(out.ICEServers, server)
	}
	return out
}
