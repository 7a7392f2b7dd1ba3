package logging

import (
	"github.com/bytedance/sonic"
	wapc "github.com/wapc/wapc-guest-tinygo"

	sdk "github.com/beacon-project/sdk"
)

const (
	capabilityName = "logging"
	fnLog          = "log"
)

// Client exposes convenience helpers for sending log entries to the host runtime.
type Client interface {
	Info(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)
	Trace(message string)
}

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sdk.RuntimeConfig

	// HostCall overrides the waPC host function used for logging operations.
	HostCall func(string, string, string, []byte) ([]byte, error)
}

// entry is the wire form of a single log line.
type entry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// client implements Client using the configured host call entrypoint.
type client struct {
	runtime  sdk.RuntimeConfig
	hostCall func(string, string, string, []byte) ([]byte, error)
}

// New creates a Client that emits logs through the configured host capability.
func New(cfg Config) (Client, error) {
	runtimeCfg := cfg.SDKConfig
	if runtimeCfg.Namespace == "" {
		runtimeCfg.Namespace = sdk.DefaultNamespace
	}

	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &client{
		runtime:  runtimeCfg,
		hostCall: hostCall,
	}, nil
}

func (c *client) Info(message string)  { c.log("info", message) }
func (c *client) Warn(message string)  { c.log("warn", message) }
func (c *client) Error(message string) { c.log("error", message) }
func (c *client) Debug(message string) { c.log("debug", message) }
func (c *client) Trace(message string) { c.log("trace", message) }

// log marshals and emits a single entry as a best-effort host call.
func (c *client) log(level, message string) {
	payload, err := sonic.Marshal(entry{Level: level, Message: message})
	if err != nil {
		return
	}
	_, _ = c.hostCall(c.runtime.Namespace, capabilityName, fnLog, payload)
}
