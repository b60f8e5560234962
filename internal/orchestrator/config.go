// Package orchestrator composes the RTMP session, FLV muxing, and NanoTDF
// collection engine into a publisher and a subscriber role.
package orchestrator

// Config holds every setting the publisher and subscriber roles accept.
type Config struct {
	KASURL     string
	KASToken   string
	KASSigningKey []byte
	RewrapPath string // default "/kas/v2/rewrap"

	RTMPURL   string
	StreamKey string

	VideoBitrate int // bps, default 2_500_000
	AudioBitrate int // bps, default 128_000
	Width        int
	Height       int
	Framerate    float64

	DataAttributes []string
	Dissem         []string
}

const (
	defaultVideoBitrate = 2_500_000
	defaultAudioBitrate = 128_000
	defaultRewrapPath   = "/kas/v2/rewrap"
)

func (c Config) withDefaults() Config {
	if c.VideoBitrate == 0 {
		c.VideoBitrate = defaultVideoBitrate
	}
	if c.AudioBitrate == 0 {
		c.AudioBitrate = defaultAudioBitrate
	}
	if c.RewrapPath == "" {
		c.RewrapPath = defaultRewrapPath
	}
	return c
}
