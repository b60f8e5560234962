package orchestrator

import (
	"encoding/base64"
	"errors"
	"strings"
)

var errNoCollection = errors.New("no collection header adopted yet")
var errTruncatedHeaderFrame = errors.New("truncated in-band NTDF header frame")

func decodeB64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// joinStreamKey appends streamKey to base's path (rtmp_url is the ingest
// app base per §6's config table; stream_key is the stream name segment).
func joinStreamKey(base, streamKey string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(streamKey, "/")
}
