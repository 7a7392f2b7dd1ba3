package metrics

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	sdk "github.com/beacon-project/sdk"
)

// JWEData is the structured value of a JWE metric: the five segments of the
// RFC 7516 compact representation. Key, InitVector, and AuthTag are legal as
// empty strings.
type JWEData struct {
	Header     string `json:"header"`
	Key        string `json:"key"`
	InitVector string `json:"init_vector"`
	CipherText string `json:"cipher_text"`
	AuthTag    string `json:"auth_tag"`
}

// CompactRepresentation returns the canonical dot-joined form of the value.
func (d JWEData) CompactRepresentation() string {
	return strings.Join([]string{d.Header, d.Key, d.InitVector, d.CipherText, d.AuthTag}, ".")
}

// JWE is a metric binding that records a JWE value per destination ping.
// Values cross the boundary in compact form; the engine validates the
// segments and stores the structured decomposition.
type JWE struct {
	metricBase
}

// Set composes the compact representation from the five segments and records
// it. Disabled metrics drop the value silently; malformed segments are
// rejected engine-side and counted as invalid_value.
func (m *JWE) Set(header, key, initVector, cipherText, authTag string) {
	m.SetWithCompactRepresentation(JWEData{
		Header:     header,
		Key:        key,
		InitVector: initVector,
		CipherText: cipherText,
		AuthTag:    authTag,
	}.CompactRepresentation())
}

// SetWithCompactRepresentation records an already-composed compact
// representation verbatim.
func (m *JWE) SetWithCompactRepresentation(compact string) {
	m.record(compact)
}

// TestHasValue reports whether a value is stored for the ping (default:
// first declared ping). Requires testing mode; drains pending recordings.
func (m *JWE) TestHasValue(pings ...string) bool {
	return m.testHasValue(pings)
}

// TestGetValue returns the structured value stored for the ping, or
// ErrMissingValue when nothing was recorded. A stored value that does not
// decode is a defect and propagates as an error. Requires testing mode;
// drains pending recordings.
func (m *JWE) TestGetValue(pings ...string) (JWEData, error) {
	raw, err := m.testGetValue(pings)
	if err != nil {
		return JWEData{}, err
	}

	var data JWEData
	if err := sonic.Unmarshal([]byte(raw), &data); err != nil {
		return JWEData{}, fmt.Errorf("%w: decoding stored JWE for %s: %s", sdk.ErrHostResponseInvalid, m.meta.identifier(), err)
	}
	return data, nil
}

// TestGetCompactRepresentation returns the compact form of the stored value.
// Requires testing mode; drains pending recordings.
func (m *JWE) TestGetCompactRepresentation(pings ...string) (string, error) {
	data, err := m.TestGetValue(pings...)
	if err != nil {
		return "", err
	}
	return data.CompactRepresentation(), nil
}

// TestGetNumRecordedErrors returns the accumulated error count for the ping.
// Requires testing mode; drains pending recordings.
func (m *JWE) TestGetNumRecordedErrors(errorType ErrorType, pings ...string) int32 {
	return m.testNumErrors(errorType, pings)
}
