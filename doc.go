// Package dispatch is the in-process webhook dispatch engine for Kiket
// extensions.
//
// Dispatch is a library, not a service. Import it into your extension to
// get versioned event routing, HMAC signature verification, runtime-token
// authentication with scope enforcement, and fire-and-forget telemetry,
// all in front of plain Go handler functions.
//
// Key features:
//   - Exact-match (event, version) handler registry with JSON Schema
//     payload validation
//   - HMAC-SHA256 signature verification over the raw request body
//   - Runtime-token auth with required-scope enforcement per handler
//   - Isolated telemetry pipeline that can never affect a response
//   - Outbound platform client with per-invocation credentials
//   - Optional invocation audit log (memory, Redis)
//
// Quick start:
//
//	engine, err := dispatch.New(
//	    dispatch.WithWebhookSecret(os.Getenv("KIKET_WEBHOOK_SECRET")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine.Register("issue.created", func(ctx context.Context, payload map[string]any, inv *invocation.Invocation) (any, error) {
//	    return map[string]any{"handled": true}, nil
//	}, registry.WithRequiredScopes("issues:read"))
//
//	http.ListenAndServe(":8080", api.NewHandler(engine, nil))
package dispatch
