package engine

import (
	"fmt"

	"github.com/bytedance/sonic"
	wapc "github.com/wapc/wapc-guest-tinygo"

	sdk "github.com/beacon-project/sdk"
)

const (
	capabilityName = "metrics"

	fnCreate           = "create"
	fnRecord           = "record"
	fnLabeledGet       = "labeled_get"
	fnTestHasValue     = "test_has_value"
	fnTestGetValue     = "test_get_value"
	fnTestGetNumErrors = "test_get_num_errors"
)

// Metric kinds understood by the engine.
const (
	KindString        = "string"
	KindJWE           = "jwe"
	KindCounter       = "counter"
	KindBoolean       = "boolean"
	KindLabeledString = "labeled_string"
)

// HostCall defines the waPC host function signature used by engine operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Handle is an opaque reference to engine-internal metric state. Handles are
// minted by the engine at registration time and stay valid for the process
// lifetime; the guest never destroys one.
type Handle string

// ErrorType identifies a class of recording error counted by the engine.
type ErrorType int

const (
	// ErrorInvalidValue counts recordings rejected for a malformed value.
	ErrorInvalidValue ErrorType = iota

	// ErrorInvalidLabel counts recordings routed to the overflow bucket
	// because of an invalid label.
	ErrorInvalidLabel

	// ErrorInvalidState counts recordings rejected because the metric was in
	// a state that cannot accept them.
	ErrorInvalidState

	// ErrorInvalidOverflow counts values coerced for exceeding size limits.
	ErrorInvalidOverflow
)

// String returns the wire name of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrorInvalidValue:
		return "invalid_value"
	case ErrorInvalidLabel:
		return "invalid_label"
	case ErrorInvalidState:
		return "invalid_state"
	case ErrorInvalidOverflow:
		return "invalid_overflow"
	default:
		return "unknown"
	}
}

// CreateRequest is the registration payload for a new metric.
type CreateRequest struct {
	Kind        string   `json:"kind"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	SendInPings []string `json:"send_in_pings"`
	Lifetime    string   `json:"lifetime"`
	Disabled    bool     `json:"disabled"`
}

type createResponse struct {
	Handle Handle `json:"handle"`
}

type recordRequest struct {
	Handle Handle `json:"handle"`
	Value  any    `json:"value"`
}

type labeledGetRequest struct {
	Handle Handle `json:"handle"`
	Label  string `json:"label"`
}

type pingRequest struct {
	Handle Handle `json:"handle"`
	Ping   string `json:"ping"`
}

type hasValueResponse struct {
	Present bool `json:"present"`
}

type valueResponse struct {
	Value string `json:"value"`
}

type numErrorsRequest struct {
	Handle Handle `json:"handle"`
	Error  string `json:"error"`
	Ping   string `json:"ping"`
}

type countResponse struct {
	Count int32 `json:"count"`
}

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sdk.RuntimeConfig

	// HostCall overrides the waPC host function used for engine operations.
	HostCall HostCall
}

// Client is the guest-side client for the metrics-engine capability.
type Client struct {
	runtime  sdk.RuntimeConfig
	hostCall HostCall
}

// New creates an engine client with namespace defaults and optional host-call override.
func New(config Config) (*Client, error) {
	runtime := config.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sdk.DefaultNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Client{runtime: runtime, hostCall: hostCall}, nil
}

// Create registers a metric with the engine and returns its handle.
// Registration failures (empty ping list, unknown kind or lifetime) are
// configuration errors and surface here, before the metric is usable.
func (c *Client) Create(req CreateRequest) (Handle, error) {
	var resp createResponse
	if err := c.call(fnCreate, req, &resp); err != nil {
		return "", err
	}
	if resp.Handle == "" {
		return "", fmt.Errorf("%w: engine returned empty handle", sdk.ErrHostResponseInvalid)
	}
	return resp.Handle, nil
}

// Record stores a value for the metric identified by handle. The value's
// shape depends on the metric kind. Data errors are coerced engine-side and
// counted, not returned; an error here means the boundary itself failed.
func (c *Client) Record(handle Handle, value any) error {
	return c.call(fnRecord, recordRequest{Handle: handle, Value: value}, nil)
}

// LabeledGet resolves the sub-metric handle for a label on a labeled metric.
// Invalid labels still resolve, to the engine's overflow bucket.
func (c *Client) LabeledGet(handle Handle, label string) (Handle, error) {
	var resp createResponse
	if err := c.call(fnLabeledGet, labeledGetRequest{Handle: handle, Label: label}, &resp); err != nil {
		return "", err
	}
	if resp.Handle == "" {
		return "", fmt.Errorf("%w: engine returned empty handle", sdk.ErrHostResponseInvalid)
	}
	return resp.Handle, nil
}

// TestHasValue reports whether a value is stored for (handle, ping).
func (c *Client) TestHasValue(handle Handle, ping string) (bool, error) {
	var resp hasValueResponse
	if err := c.call(fnTestHasValue, pingRequest{Handle: handle, Ping: ping}, &resp); err != nil {
		return false, err
	}
	return resp.Present, nil
}

// TestGetValue returns the serialized value stored for (handle, ping): the
// raw string for string metrics, a JSON object for structured metrics, a
// decimal for counters. Fails when no value is present.
func (c *Client) TestGetValue(handle Handle, ping string) (string, error) {
	var resp valueResponse
	if err := c.call(fnTestGetValue, pingRequest{Handle: handle, Ping: ping}, &resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// TestGetNumErrors returns the accumulated error count for
// (handle, errorType, ping).
func (c *Client) TestGetNumErrors(handle Handle, errorType ErrorType, ping string) (int32, error) {
	req := numErrorsRequest{Handle: handle, Error: errorType.String(), Ping: ping}
	var resp countResponse
	if err := c.call(fnTestGetNumErrors, req, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// call marshals a request, crosses the host boundary, and decodes the
// response when one is expected.
func (c *Client) call(function string, req any, resp any) error {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: marshaling %s request: %s", sdk.ErrHostCall, function, err)
	}

	data, err := c.hostCall(c.runtime.Namespace, capabilityName, function, payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", sdk.ErrHostError, function, err)
	}

	if resp == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("%w: decoding %s response: %s", sdk.ErrHostResponseInvalid, function, err)
	}
	return nil
}
