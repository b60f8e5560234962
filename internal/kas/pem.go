package kas

import (
	"crypto/ecdh"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rvance/ntdf-rtmp/internal/errors"
)

const (
	pemHeader = "-----BEGIN PUBLIC KEY-----\n"
	pemFooter = "-----END PUBLIC KEY-----"
)

// EncodeRawSEC1PEM wraps the 65-byte uncompressed SEC1 point of a P-256
// public key in the bare PEM framing the KAS expects — base64 of the raw
// point, NOT an SPKI DER structure. §4.6 step 2 requires replicating this
// framing bit-for-bit.
func EncodeRawSEC1PEM(pub *ecdh.PublicKey) string {
	raw := pub.Bytes() // 65 bytes: 0x04 || X(32) || Y(32)
	return pemHeader + base64.StdEncoding.EncodeToString(raw) + pemFooter
}

// DecodeRawSEC1PEM reverses EncodeRawSEC1PEM, also tolerating a trailing
// newline and bodies that wrap at 64 columns.
func DecodeRawSEC1PEM(pemText string) (*ecdh.PublicKey, error) {
	body := strings.TrimSpace(pemText)
	body = strings.TrimPrefix(body, strings.TrimSpace(pemHeader))
	body = strings.TrimSuffix(body, pemFooter)
	body = strings.ReplaceAll(body, "\n", "")
	body = strings.TrimSpace(body)
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, errors.NewKASError("pem.decode", 0, err)
	}
	return parseSEC1OrSPKI(raw)
}

// parseSEC1OrSPKI accepts either a bare 65-byte raw SEC1 point or an SPKI DER
// structure with a 26-byte prefix ahead of the same 65-byte point, per the
// "initialize" contract in §4.7: "accept either 65-byte raw SEC1 or
// SPKI-26-byte-prefix+65".
func parseSEC1OrSPKI(raw []byte) (*ecdh.PublicKey, error) {
	curve := ecdh.P256()
	switch {
	case len(raw) == 65:
		pub, err := curve.NewPublicKey(raw)
		if err != nil {
			return nil, errors.NewKASError("pem.decode", 0, err)
		}
		return pub, nil
	case len(raw) == 26+65:
		pub, err := curve.NewPublicKey(raw[26:])
		if err != nil {
			return nil, errors.NewKASError("pem.decode", 0, err)
		}
		return pub, nil
	default:
		return nil, errors.NewKASError("pem.decode", 0, fmt.Errorf("unexpected public key length: %d", len(raw)))
	}
}

// CompressPoint converts a P-256 uncompressed point (65 bytes) to its
// 33-byte compressed form, as carried in a NanoTDF header's
// EphemeralPublicKey field.
func CompressPoint(pub *ecdh.PublicKey) []byte {
	raw := pub.Bytes() // 0x04 || X(32) || Y(32)
	x := raw[1:33]
	y := raw[33:65]
	out := make([]byte, 33)
	if y[31]&1 == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	copy(out[1:], x)
	return out
}
