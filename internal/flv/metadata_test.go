package flv

import (
	"encoding/base64"
	"testing"
)

func TestBuildOnMetaData_RoundTrip(t *testing.T) {
	fields := map[string]interface{}{
		"width":         float64(1280),
		"height":        float64(720),
		"videocodecid":  float64(CodecIDAVC),
		"audiocodecid":  float64(SoundFormatAAC),
	}
	header := []byte("collection-header")
	body, err := BuildOnMetaData(fields, header)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := ParseOnMetaData(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["width"] != float64(1280) {
		t.Fatalf("width mismatch: %v", got["width"])
	}
	b64, ok := got["ntdf_header"].(string)
	if !ok {
		t.Fatalf("expected ntdf_header to decode as a string, got %T", got["ntdf_header"])
	}
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	if string(decoded) != string(header) {
		t.Fatalf("header mismatch: got %q want %q", decoded, header)
	}
}

func TestBuildOnMetaData_NilHeaderOmitsField(t *testing.T) {
	body, err := BuildOnMetaData(map[string]interface{}{"width": float64(640)}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := ParseOnMetaData(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := got["ntdf_header"]; ok {
		t.Fatal("expected ntdf_header to be absent for an unencrypted stream")
	}
}

func TestParseOnMetaData_InvalidBody(t *testing.T) {
	if _, err := ParseOnMetaData([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected error for malformed onMetaData body")
	}
}
