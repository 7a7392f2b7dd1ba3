package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	sdk "github.com/beacon-project/sdk"
	"github.com/beacon-project/sdk/engine"
)

const capabilityName = "metrics"

const (
	// maxStringBytes caps stored string values; longer values are truncated
	// and counted as invalid_overflow.
	maxStringBytes = 100

	// maxLabels caps distinct labels per labeled metric; surplus labels
	// route to the overflow bucket without an error.
	maxLabels = 16

	// otherLabel is the overflow bucket for invalid or surplus labels.
	otherLabel = "__other__"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnknownFunction is returned for functions outside the engine contract.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownHandle is returned when a request names a handle that was never minted.
	ErrUnknownHandle = errors.New("unknown metric handle")

	// ErrInvalidRequest is returned for malformed or incomplete payloads.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoValue is returned by test_get_value when nothing is stored.
	ErrNoValue = errors.New("no value recorded")
)

var (
	isLabelValid = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,29}$`)
	isBase64URL  = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)
)

var knownLifetimes = map[string]bool{
	"ping":        true,
	"application": true,
	"user":        true,
}

var knownKinds = map[string]bool{
	engine.KindString:        true,
	engine.KindJWE:           true,
	engine.KindCounter:       true,
	engine.KindBoolean:       true,
	engine.KindLabeledString: true,
}

// metric is the engine-side state of one registered metric.
type metric struct {
	def    engine.CreateRequest
	labels map[string]engine.Handle // minted sub-metrics, labeled kinds only
}

// Config represents the configuration for creating an Engine instance.
type Config struct {
	// Namespace is the namespace the engine accepts host calls for.
	// If empty, sdk.DefaultNamespace is used.
	Namespace string
}

// Engine is an in-memory metrics engine. Values are stored per
// (handle, ping) with overwrite semantics; counters accumulate. Safe for
// concurrent use, though during normal operation the dispatcher worker is
// the only writer.
type Engine struct {
	namespace string

	mu      sync.Mutex
	metrics map[engine.Handle]*metric
	values  map[engine.Handle]map[string]string
	errors  map[engine.Handle]map[string]map[string]int32
	calls   map[string]int
}

// New creates an Engine based on the provided Config.
func New(config Config) *Engine {
	namespace := config.Namespace
	if namespace == "" {
		namespace = sdk.DefaultNamespace
	}
	return &Engine{
		namespace: namespace,
		metrics:   make(map[engine.Handle]*metric),
		values:    make(map[engine.Handle]map[string]string),
		errors:    make(map[engine.Handle]map[string]map[string]int32),
		calls:     make(map[string]int),
	}
}

// HostCall implements the waPC host-call signature for the metrics capability.
func (e *Engine) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls[function]++

	if namespace != e.namespace {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedNamespace, e.namespace, namespace)
	}
	if capability != capabilityName {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedCapability, capabilityName, capability)
	}

	switch function {
	case "create":
		return e.create(payload)
	case "record":
		return e.record(payload)
	case "labeled_get":
		return e.labeledGet(payload)
	case "test_has_value":
		return e.testHasValue(payload)
	case "test_get_value":
		return e.testGetValue(payload)
	case "test_get_num_errors":
		return e.testGetNumErrors(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}
}

// CallCount returns how many host calls the engine has seen for a function,
// or the total when function is empty.
func (e *Engine) CallCount(function string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if function == "" {
		total := 0
		for _, n := range e.calls {
			total += n
		}
		return total
	}
	return e.calls[function]
}

func (e *Engine) create(payload []byte) ([]byte, error) {
	var req engine.CreateRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	if !knownKinds[req.Kind] {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
	}
	if !knownLifetimes[req.Lifetime] {
		return nil, fmt.Errorf("%w: unknown lifetime %q", ErrInvalidRequest, req.Lifetime)
	}
	if req.Category == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: category and name are required", ErrInvalidRequest)
	}
	if len(req.SendInPings) == 0 {
		return nil, fmt.Errorf("%w: metric %s.%s has no destination pings", ErrInvalidRequest, req.Category, req.Name)
	}
	for _, ping := range req.SendInPings {
		if ping == "" {
			return nil, fmt.Errorf("%w: metric %s.%s has an empty ping name", ErrInvalidRequest, req.Category, req.Name)
		}
	}

	handle := e.mint(req)
	return sonic.Marshal(map[string]engine.Handle{"handle": handle})
}

// mint registers a metric definition and returns its new handle.
// Caller must hold e.mu.
func (e *Engine) mint(def engine.CreateRequest) engine.Handle {
	handle := engine.Handle(xid.New().String())
	m := &metric{def: def}
	if def.Kind == engine.KindLabeledString {
		m.labels = make(map[string]engine.Handle)
	}
	e.metrics[handle] = m
	return handle
}

type recordRequest struct {
	Handle engine.Handle   `json:"handle"`
	Value  json.RawMessage `json:"value"`
}

func (e *Engine) record(payload []byte) ([]byte, error) {
	var req recordRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	m, ok := e.metrics[req.Handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, req.Handle)
	}

	switch m.def.Kind {
	case engine.KindString:
		return nil, e.recordString(req.Handle, m, req.Value)
	case engine.KindJWE:
		return nil, e.recordJWE(req.Handle, m, req.Value)
	case engine.KindCounter:
		return nil, e.recordCounter(req.Handle, m, req.Value)
	case engine.KindBoolean:
		return nil, e.recordBoolean(req.Handle, m, req.Value)
	case engine.KindLabeledString:
		// Labeled metrics record through their sub-metrics, never directly.
		e.countError(req.Handle, m, engine.ErrorInvalidState)
		log.Debug().Str("metric", m.def.Category+"."+m.def.Name).
			Msg("mock engine: direct record on labeled metric")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: kind %q cannot record", ErrInvalidRequest, m.def.Kind)
	}
}

func (e *Engine) recordString(handle engine.Handle, m *metric, raw json.RawMessage) error {
	var value string
	if err := sonic.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("%w: string value: %s", ErrInvalidRequest, err)
	}

	if len(value) > maxStringBytes {
		value = value[:maxStringBytes]
		e.countError(handle, m, engine.ErrorInvalidOverflow)
		log.Debug().Str("metric", m.def.Category+"."+m.def.Name).
			Msg("mock engine: truncating oversized string value")
	}

	e.store(handle, m, value)
	return nil
}

// jweValue is the engine's serialized form of a JWE: a JSON object with the
// five named compact-representation segments.
type jweValue struct {
	Header     string `json:"header"`
	Key        string `json:"key"`
	InitVector string `json:"init_vector"`
	CipherText string `json:"cipher_text"`
	AuthTag    string `json:"auth_tag"`
}

func (e *Engine) recordJWE(handle engine.Handle, m *metric, raw json.RawMessage) error {
	var compact string
	if err := sonic.Unmarshal(raw, &compact); err != nil {
		return fmt.Errorf("%w: jwe value: %s", ErrInvalidRequest, err)
	}

	parts := strings.Split(compact, ".")
	if !validJWEParts(parts) {
		e.countError(handle, m, engine.ErrorInvalidValue)
		log.Debug().Str("metric", m.def.Category+"."+m.def.Name).
			Msg("mock engine: rejecting malformed JWE compact representation")
		return nil
	}

	serialized, err := sonic.Marshal(jweValue{
		Header:     parts[0],
		Key:        parts[1],
		InitVector: parts[2],
		CipherText: parts[3],
		AuthTag:    parts[4],
	})
	if err != nil {
		return fmt.Errorf("%w: serializing jwe: %s", ErrInvalidRequest, err)
	}

	e.store(handle, m, string(serialized))
	return nil
}

// validJWEParts checks the compact representation: exactly five base64url
// segments with header and ciphertext non-empty. Key, init vector, and auth
// tag are legal as empty strings.
func validJWEParts(parts []string) bool {
	if len(parts) != 5 {
		return false
	}
	for _, p := range parts {
		if !isBase64URL.MatchString(p) {
			return false
		}
	}
	return parts[0] != "" && parts[3] != ""
}

func (e *Engine) recordCounter(handle engine.Handle, m *metric, raw json.RawMessage) error {
	var amount int32
	if err := sonic.Unmarshal(raw, &amount); err != nil {
		return fmt.Errorf("%w: counter amount: %s", ErrInvalidRequest, err)
	}

	if amount <= 0 {
		e.countError(handle, m, engine.ErrorInvalidValue)
		log.Debug().Str("metric", m.def.Category+"."+m.def.Name).Int32("amount", amount).
			Msg("mock engine: rejecting non-positive counter amount")
		return nil
	}

	for _, ping := range m.def.SendInPings {
		current := int64(0)
		if stored, ok := e.values[handle][ping]; ok {
			current, _ = strconv.ParseInt(stored, 10, 64)
		}
		e.storePing(handle, ping, strconv.FormatInt(current+int64(amount), 10))
	}
	return nil
}

func (e *Engine) recordBoolean(handle engine.Handle, m *metric, raw json.RawMessage) error {
	var value bool
	if err := sonic.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("%w: boolean value: %s", ErrInvalidRequest, err)
	}
	e.store(handle, m, strconv.FormatBool(value))
	return nil
}

type labeledGetRequest struct {
	Handle engine.Handle `json:"handle"`
	Label  string        `json:"label"`
}

func (e *Engine) labeledGet(payload []byte) ([]byte, error) {
	var req labeledGetRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	parent, ok := e.metrics[req.Handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, req.Handle)
	}
	if parent.def.Kind != engine.KindLabeledString {
		return nil, fmt.Errorf("%w: kind %q is not labeled", ErrInvalidRequest, parent.def.Kind)
	}

	label := req.Label
	if !isLabelValid.MatchString(label) {
		e.countError(req.Handle, parent, engine.ErrorInvalidLabel)
		log.Debug().Str("metric", parent.def.Category+"."+parent.def.Name).Str("label", label).
			Msg("mock engine: invalid label routed to overflow bucket")
		label = otherLabel
	} else if _, seen := parent.labels[label]; !seen && label != otherLabel && len(parent.labels) >= maxLabels {
		label = otherLabel
	}

	handle, ok := parent.labels[label]
	if !ok {
		def := parent.def
		def.Kind = engine.KindString
		def.Name = parent.def.Name + "/" + label
		handle = e.mint(def)
		parent.labels[label] = handle
	}

	return sonic.Marshal(map[string]engine.Handle{"handle": handle})
}

type pingRequest struct {
	Handle engine.Handle `json:"handle"`
	Ping   string        `json:"ping"`
}

func (e *Engine) testHasValue(payload []byte) ([]byte, error) {
	var req pingRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	if _, ok := e.metrics[req.Handle]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, req.Handle)
	}

	_, present := e.values[req.Handle][req.Ping]
	return sonic.Marshal(map[string]bool{"present": present})
}

func (e *Engine) testGetValue(payload []byte) ([]byte, error) {
	var req pingRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	m, ok := e.metrics[req.Handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, req.Handle)
	}

	value, present := e.values[req.Handle][req.Ping]
	if !present {
		return nil, fmt.Errorf("%w: %s.%s in ping %q", ErrNoValue, m.def.Category, m.def.Name, req.Ping)
	}
	return sonic.Marshal(map[string]string{"value": value})
}

type numErrorsRequest struct {
	Handle engine.Handle `json:"handle"`
	Error  string        `json:"error"`
	Ping   string        `json:"ping"`
}

func (e *Engine) testGetNumErrors(payload []byte) ([]byte, error) {
	var req numErrorsRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	if _, ok := e.metrics[req.Handle]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, req.Handle)
	}

	count := e.errors[req.Handle][req.Error][req.Ping]
	return sonic.Marshal(map[string]int32{"count": count})
}

// store writes a serialized value for every destination ping of the metric.
// Recording overwrites; there is at most one current value per (handle, ping).
// Caller must hold e.mu.
func (e *Engine) store(handle engine.Handle, m *metric, value string) {
	for _, ping := range m.def.SendInPings {
		e.storePing(handle, ping, value)
	}
}

// storePing writes a serialized value for a single ping. Caller must hold e.mu.
func (e *Engine) storePing(handle engine.Handle, ping, value string) {
	if e.values[handle] == nil {
		e.values[handle] = make(map[string]string)
	}
	e.values[handle][ping] = value
}

// countError increments the error counter for every destination ping of the
// metric. Counters are never decremented. Caller must hold e.mu.
func (e *Engine) countError(handle engine.Handle, m *metric, errorType engine.ErrorType) {
	kind := errorType.String()
	if e.errors[handle] == nil {
		e.errors[handle] = make(map[string]map[string]int32)
	}
	if e.errors[handle][kind] == nil {
		e.errors[handle][kind] = make(map[string]int32)
	}
	for _, ping := range m.def.SendInPings {
		e.errors[handle][kind][ping]++
	}
}
