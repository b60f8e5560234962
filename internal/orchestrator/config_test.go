package orchestrator

import "testing"

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.VideoBitrate != defaultVideoBitrate {
		t.Fatalf("video bitrate: got %d want %d", cfg.VideoBitrate, defaultVideoBitrate)
	}
	if cfg.AudioBitrate != defaultAudioBitrate {
		t.Fatalf("audio bitrate: got %d want %d", cfg.AudioBitrate, defaultAudioBitrate)
	}
	if cfg.RewrapPath != defaultRewrapPath {
		t.Fatalf("rewrap path: got %q want %q", cfg.RewrapPath, defaultRewrapPath)
	}
}

func TestConfig_WithDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{VideoBitrate: 4_000_000, AudioBitrate: 96_000, RewrapPath: "/custom/rewrap"}.withDefaults()
	if cfg.VideoBitrate != 4_000_000 || cfg.AudioBitrate != 96_000 || cfg.RewrapPath != "/custom/rewrap" {
		t.Fatalf("explicit values were overwritten: %+v", cfg)
	}
}
