package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/kiket-dev/dispatch/auth"
	"github.com/kiket-dev/dispatch/endpoints"
	"github.com/kiket-dev/dispatch/id"
	"github.com/kiket-dev/dispatch/internal/entity"
	"github.com/kiket-dev/dispatch/invocation"
	"github.com/kiket-dev/dispatch/observability"
	"github.com/kiket-dev/dispatch/ratelimit"
	"github.com/kiket-dev/dispatch/registry"
	"github.com/kiket-dev/dispatch/scope"
	"github.com/kiket-dev/dispatch/secrets"
	"github.com/kiket-dev/dispatch/signature"
	"github.com/kiket-dev/dispatch/store"
	"github.com/kiket-dev/dispatch/telemetry"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// Inbound request headers.
const (
	// HeaderSignature carries the HMAC-SHA256 hex digest of the raw body.
	HeaderSignature = "X-Kiket-Signature"

	// HeaderTimestamp carries the request's RFC 3339 send time. When
	// present it must fall within the allowed skew.
	HeaderTimestamp = "X-Kiket-Timestamp"

	// HeaderEventVersion selects the handler version when the path
	// carries none.
	HeaderEventVersion = "X-Kiket-Event-Version"

	// QueryVersion is the lowest-precedence version selector.
	QueryVersion = "version"
)

// Failure kinds reported in error response bodies.
const (
	FailureNotFound         = "not_found"
	FailureSignatureInvalid = "signature_invalid"
	FailureUnauthorized     = "unauthorized"
	FailureTokenExpired     = "runtime_token_expired"
	FailureScopeDenied      = "scope_denied"
	FailureHandlerError     = "handler_error"
)

// Engine is the root webhook dispatch engine.
type Engine struct {
	config    Config
	registry  *registry.Registry
	validator *registry.Validator
	reporter  *telemetry.Reporter
	hook      telemetry.FeedbackHook
	store     store.Store
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	limiter   *ratelimit.Limiter
	envLookup secrets.LookupFunc
	logger    *slog.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.config.WebhookSecret == "" {
		return nil, ErrNoWebhookSecret
	}
	e.wireServices()
	return e, nil
}

// wireServices initializes the internal services after options have been applied.
func (e *Engine) wireServices() {
	e.registry = registry.New()
	e.validator = registry.NewValidator()
	e.limiter = ratelimit.New()
	if e.envLookup == nil {
		e.envLookup = os.LookupEnv
	}
	e.reporter = telemetry.NewReporter(telemetry.Config{
		Enabled:          !e.config.TelemetryDisabled,
		URL:              e.config.TelemetryURL,
		Hook:             e.hook,
		ExtensionID:      e.config.ExtensionID,
		ExtensionVersion: e.config.ExtensionVersion,
		Metrics:          e.metrics,
	}, e.logger)
}

// Register binds a handler to an event name. The version defaults to
// registry.DefaultVersion unless registry.WithVersion is given. Duplicate
// (event, version) pairs are a startup configuration error.
func (e *Engine) Register(event string, h invocation.Handler, opts ...registry.RegisterOption) error {
	_, err := e.registry.Register(event, h, opts...)
	return err
}

// Registry returns the handler registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Store returns the invocation audit log backend, or nil.
func (e *Engine) Store() store.Store {
	return e.store
}

// Telemetry returns the telemetry reporter.
func (e *Engine) Telemetry() *telemetry.Reporter {
	return e.reporter
}

// Close shuts down the telemetry pipeline and the store, draining queued
// telemetry records first.
func (e *Engine) Close() error {
	e.reporter.Close()
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Request is one inbound webhook delivery, decoded from transport by the
// caller (the api package, or tests directly).
type Request struct {
	// Event is the event name from the request path.
	Event string

	// Version is the version from the request path, when the path form
	// carries one. Header and query selectors apply when empty.
	Version string

	// Headers are the inbound request headers.
	Headers http.Header

	// Query is the parsed request query string.
	Query url.Values

	// Body is the raw, unparsed request body. Signature verification
	// runs over these exact bytes.
	Body []byte

	// ReceivedAt is when the request was captured. Zero means now.
	ReceivedAt time.Time
}

// Response is the outcome of one dispatch, ready for JSON serialization.
type Response struct {
	StatusCode int
	Body       any
}

// ErrorBody is the JSON error payload for failed dispatches.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`

	// MissingScopes lists the exact unmet scopes on scope denials.
	MissingScopes []string `json:"missing_scopes,omitempty"`
}

func failure(status int, kind, message string) Response {
	return Response{
		StatusCode: status,
		Body:       ErrorBody{Error: kind, Message: message},
	}
}

// Dispatch runs one inbound delivery through the full invocation
// lifecycle: routing, signature verification, authentication and scope
// enforcement, payload validation, handler execution, and telemetry.
//
// The handler is never invoked on any pre-execution failure, and no
// telemetry record is produced for one.
func (e *Engine) Dispatch(ctx context.Context, req Request) Response {
	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	// Route. Version precedence: path, then header, then query.
	version := req.Version
	if version == "" {
		version = req.Headers.Get(HeaderEventVersion)
	}
	if version == "" {
		version = req.Query.Get(QueryVersion)
	}
	if version == "" {
		version = registry.DefaultVersion
	}

	reg, err := e.registry.Resolve(req.Event, version)
	if err != nil {
		e.logger.DebugContext(ctx, "no handler for event",
			"event", req.Event,
			"version", version,
		)
		return failure(http.StatusNotFound, FailureNotFound,
			fmt.Sprintf("no handler registered for %s@%s", req.Event, version))
	}

	// Verify the HMAC over the raw body before touching its content.
	if !signature.Verify(req.Body, e.config.WebhookSecret, req.Headers.Get(HeaderSignature)) {
		e.logger.WarnContext(ctx, "signature verification failed",
			"event", req.Event,
			"version", version,
		)
		return failure(http.StatusUnauthorized, FailureSignatureInvalid,
			"signature verification failed")
	}
	if ts := req.Headers.Get(HeaderTimestamp); ts != "" {
		if !signature.CheckTimestamp(ts, time.Now().UTC(), signature.AllowedSkew) {
			return failure(http.StatusUnauthorized, FailureSignatureInvalid,
				"request timestamp outside allowed skew")
		}
	}

	var payload map[string]any
	if len(req.Body) > 0 {
		if unmarshalErr := json.Unmarshal(req.Body, &payload); unmarshalErr != nil {
			e.logger.ErrorContext(ctx, "malformed payload",
				"event", req.Event,
				"error", unmarshalErr,
			)
			return failure(http.StatusInternalServerError, FailureHandlerError,
				"invalid payload")
		}
	}
	if payload == nil {
		payload = map[string]any{}
	}

	// Authenticate. The runtime token rides inside the payload.
	info, authErr := auth.FromPayload(payload)
	if authErr != nil && !errors.Is(authErr, auth.ErrMissingRuntimeToken) {
		return failure(http.StatusUnauthorized, FailureUnauthorized,
			"invalid runtime token")
	}
	if info != nil && info.Expired(time.Now().UTC()) {
		return failure(http.StatusUnauthorized, FailureTokenExpired,
			"runtime token is expired")
	}
	if len(reg.RequiredScopes) > 0 {
		if info == nil {
			return failure(http.StatusUnauthorized, FailureUnauthorized,
				"runtime token required")
		}
		if missing := scope.Check(reg.RequiredScopes, info.Scopes); len(missing) > 0 {
			if e.metrics != nil {
				e.metrics.ScopeDenials.Inc()
			}
			return Response{
				StatusCode: http.StatusForbidden,
				Body: ErrorBody{
					Error:         FailureScopeDenied,
					Message:       "runtime token is missing required scopes",
					MissingScopes: missing,
				},
			}
		}
	}

	// Consume the reserved envelope fields. They never reach the handler
	// or the payload schema.
	resolver := secrets.NewResolver(secrets.PayloadSecrets(payload), e.envLookup)
	delete(payload, auth.PayloadField)
	delete(payload, secrets.PayloadField)

	// Validate the handler-visible payload shape, if the registration
	// declares a schema.
	if reg.Schema != nil {
		if validateErr := e.validator.Validate(reg.Schema, payload); validateErr != nil {
			e.logger.ErrorContext(ctx, "payload schema validation failed",
				"event", req.Event,
				"version", version,
				"error", validateErr,
			)
			return failure(http.StatusInternalServerError, FailureHandlerError,
				"invalid payload")
		}
	}

	var client *endpoints.Client
	if e.config.BaseURL != "" {
		runtimeToken := ""
		if info != nil {
			runtimeToken = info.Token
		}
		client = endpoints.NewClient(endpoints.Config{
			BaseURL:        e.config.BaseURL,
			WorkspaceToken: e.config.WorkspaceToken,
			RuntimeToken:   runtimeToken,
			ExtensionID:    e.config.ExtensionID,
			EventVersion:   version,
			Timeout:        e.config.RequestTimeout,
			RateLimit:      e.config.RateLimit,
			Limiter:        e.limiter,
		})
	}

	inv := invocation.New(invocation.Params{
		Event:            req.Event,
		Version:          version,
		Headers:          req.Headers,
		Settings:         e.config.Settings,
		ExtensionID:      e.config.ExtensionID,
		ExtensionVersion: e.config.ExtensionVersion,
		Auth:             info,
		Secrets:          resolver,
		Client:           client,
	})

	// Execute.
	invID := id.NewInvocationID()
	execCtx := ctx
	var span oteltrace.Span
	if e.tracer != nil {
		execCtx, span = e.tracer.StartInvocationSpan(ctx, invID.String(), req.Event, version)
	}
	start := time.Now()
	result, handlerErr := e.invoke(execCtx, reg.Handler, payload, inv)
	durationMS := float64(time.Since(start)) / float64(time.Millisecond)

	status := string(telemetry.StatusOK)
	errDetail := ""
	if handlerErr != nil {
		status = string(telemetry.StatusError)
		errDetail = handlerErr.Error()
	}

	if e.metrics != nil {
		e.metrics.RecordInvocation(status, durationMS/1000)
	}
	if e.tracer != nil {
		e.tracer.EndInvocationSpan(span, status, durationMS, errDetail)
	}

	if e.reporter.Enabled() {
		e.reporter.Record(telemetry.Record{
			Event:      req.Event,
			Version:    version,
			Status:     telemetry.Status(status),
			DurationMS: durationMS,
			Error:      errDetail,
			Metadata:   inv.Annotations(),
		})
	}

	e.saveRecord(ctx, &store.Record{
		Entity:     entity.New(),
		ID:         invID,
		Event:      req.Event,
		Version:    version,
		Status:     status,
		DurationMS: durationMS,
		Error:      errDetail,
		ReceivedAt: receivedAt,
	})

	if handlerErr != nil {
		e.logger.ErrorContext(ctx, "handler failed",
			"event", req.Event,
			"version", version,
			"invocation_id", invID,
			"error", handlerErr,
		)
		return failure(http.StatusInternalServerError, FailureHandlerError,
			"handler execution failed")
	}

	if result == nil {
		result = map[string]any{"ok": true}
	}
	return Response{StatusCode: http.StatusOK, Body: result}
}

// invoke runs the handler, converting panics into errors.
func (e *Engine) invoke(ctx context.Context, h invocation.Handler, payload map[string]any, inv *invocation.Invocation) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("dispatch: handler panic: %v", p)
		}
	}()
	return h(ctx, payload, inv)
}

// saveRecord writes one audit log record, best effort.
func (e *Engine) saveRecord(ctx context.Context, rec *store.Record) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveRecord(ctx, rec); err != nil {
		e.logger.ErrorContext(ctx, "audit record write failed",
			"invocation_id", rec.ID,
			"error", err,
		)
	}
}
