package flv

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/rvance/ntdf-rtmp/internal/errors"
	"github.com/rvance/ntdf-rtmp/internal/rtmp/amf"
)

// BuildOnMetaData encodes an AMF0 script-data-message body of the form
// ["@setDataFrame", "onMetaData", ECMAArray(fields)], the payload carried in
// an RTMP_MSG_AMF0_DATA message announcing stream properties. fields is
// copied verbatim into the ECMAArray. ntdfHeader, if non-nil, is carried as
// the base64-encoded "ntdf_header" field per §6's onMetaData table; pass nil
// for an unencrypted stream.
func BuildOnMetaData(fields map[string]interface{}, ntdfHeader []byte) ([]byte, error) {
	ecma := make(amf.ECMAArray, len(fields)+1)
	for k, v := range fields {
		ecma[k] = v
	}
	if ntdfHeader != nil {
		ecma["ntdf_header"] = base64.StdEncoding.EncodeToString(ntdfHeader)
	}

	var buf bytes.Buffer
	if err := amf.EncodeValue(&buf, "@setDataFrame"); err != nil {
		return nil, errors.NewFLVError("metadata.build", err)
	}
	if err := amf.EncodeValue(&buf, "onMetaData"); err != nil {
		return nil, errors.NewFLVError("metadata.build", err)
	}
	if err := amf.EncodeValue(&buf, ecma); err != nil {
		return nil, errors.NewFLVError("metadata.build", err)
	}
	return buf.Bytes(), nil
}

// ParseOnMetaData decodes a script-data-message body back into its onMetaData
// field map, stripping the "@setDataFrame"/"onMetaData" command prefix.
func ParseOnMetaData(body []byte) (map[string]interface{}, error) {
	vals, err := amf.DecodeAll(body)
	if err != nil {
		return nil, errors.NewFLVError("metadata.parse", err)
	}
	for _, v := range vals {
		if ecma, ok := v.(amf.ECMAArray); ok {
			return map[string]interface{}(ecma), nil
		}
		if obj, ok := v.(map[string]interface{}); ok {
			return obj, nil
		}
	}
	return nil, errors.NewFLVError("metadata.parse", fmt.Errorf("onMetaData body contains no object/ECMAArray value"))
}
