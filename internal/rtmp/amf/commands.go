package amf

// Command-payload builders for the AMF0 invokes the session FSM sends.
// Each helper returns the concatenated AMF0 byte sequence for one RTMP
// command message (type 20); the caller is responsible for wrapping it in a
// chunk.Message with the correct CSID/MessageStreamID.

// Connect builds the "connect" command payload per §4.3 step 2.
func Connect(app, tcURL, flashVer string, objectEncoding float64, txnID float64) ([]byte, error) {
	cmdObj := map[string]interface{}{
		"app":            app,
		"type":           "nonprivate",
		"flashVer":       flashVer,
		"tcUrl":          tcURL,
		"objectEncoding": objectEncoding,
	}
	return EncodeAll("connect", txnID, cmdObj)
}

// CreateStream builds the "createStream" command payload per §4.3 step 3.
func CreateStream(txnID float64) ([]byte, error) {
	return EncodeAll("createStream", txnID, nil)
}

// ReleaseStream builds the "releaseStream" command payload per §4.3 step 3.
func ReleaseStream(name string, txnID float64) ([]byte, error) {
	return EncodeAll("releaseStream", txnID, nil, name)
}

// FCPublish builds the "FCPublish" command payload per §4.3 step 3.
func FCPublish(name string, txnID float64) ([]byte, error) {
	return EncodeAll("FCPublish", txnID, nil, name)
}

// FCUnpublish builds the "FCUnpublish" command payload per §4.3 graceful shutdown.
func FCUnpublish(name string, txnID float64) ([]byte, error) {
	return EncodeAll("FCUnpublish", txnID, nil, name)
}

// DeleteStream builds the "deleteStream" command payload per §4.3 graceful shutdown.
func DeleteStream(streamID float64, txnID float64) ([]byte, error) {
	return EncodeAll("deleteStream", txnID, nil, streamID)
}

// Publish builds the "publish" command payload per §4.3 step 4.
func Publish(name, publishType string, txnID float64) ([]byte, error) {
	return EncodeAll("publish", txnID, nil, name, publishType)
}

// Play builds the "play" command payload per §4.3 subscriber dialog. start is
// the play start position; -2 requests live (the value the session passes).
func Play(name string, start float64, txnID float64) ([]byte, error) {
	return EncodeAll("play", txnID, nil, name, start)
}
