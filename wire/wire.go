// Package wire defines the JSON envelope the config.v3.getConfig RPC
// method exchanges: the request tree sent to a peer and the response tree
// it returns, encoded with github.com/go-json-experiment/json.
package wire

import (
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Method is the RPC method name used for protocol version 3.
const Method = "config.v3.getConfig"

// MethodV2 is the RPC method name used for protocol version 2 (no
// compression support, "s" return slot only).
const MethodV2 = "config.v2.getConfig"

// RequestTree is the JSON body of a getConfig call. Field order here
// matches the order the original populates them in, which callers may rely
// on for stable wire captures in tests.
type RequestTree struct {
	Version           int      `json:"version"`
	DefName           string   `json:"defName"`
	DefNamespace      string   `json:"defNamespace"`
	DefMD5            string   `json:"defMD5"`
	DefContent        []string `json:"defContent"`
	ConfigID          string   `json:"configId"`
	ClientHostname    string   `json:"clientHostname"`
	ConfigXxhash64    string   `json:"configXxhash64"`
	CurrentGeneration int64    `json:"currentGeneration"`
	TimeoutMillis     int64    `json:"timeout"`
	Trace             Trace    `json:"trace"`
	CompressionType   string   `json:"compressionType,omitempty"`
	VespaVersion      string   `json:"vespaVersion"`
}

// Trace carries the client's requested trace verbosity. The response's own
// trace tree is accepted but not interpreted (tracing is out of scope).
type Trace struct {
	Level int `json:"level"`
}

// CompressionInfo is the wire shape of configkey.CompressionInfo.
type CompressionInfo struct {
	CompressionType  string `json:"compressionType"`
	UncompressedSize uint32 `json:"uncompressedSize"`
}

// ResponseTree is the JSON body returned alongside the (possibly
// compressed) binary payload in the "sx" return slot (v3) or folded into
// the "s" slot (v2, no CompressionInfo).
type ResponseTree struct {
	ConfigID          string          `json:"configId"`
	DefName           string          `json:"defName"`
	DefNamespace      string          `json:"defNamespace"`
	DefMD5            string          `json:"defMD5"`
	ConfigMD5         string          `json:"configMD5"`
	Generation        int64           `json:"generation"`
	InternalRedeploy  bool            `json:"internalRedeploy"`
	Trace             jsontext.Value  `json:"trace,omitempty"`
	CompressionInfo   CompressionInfo `json:"compressionInfo"`
}

// MarshalRequest encodes r as the JSON string sent as the method's first
// argument.
func MarshalRequest(r *RequestTree) ([]byte, error) {
	return jsonv2.Marshal(r)
}

// UnmarshalResponse decodes the JSON string returned in the "s"/"sx"
// response slot. A decode error here is the fatal malformed-payload case:
// callers must treat it as a protocol failure, not retry the same bytes.
func UnmarshalResponse(data []byte) (*ResponseTree, error) {
	var rt ResponseTree
	if err := jsonv2.Unmarshal(data, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}
