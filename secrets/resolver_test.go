package secrets_test

import (
	"testing"

	"github.com/kiket-dev/dispatch/secrets"
)

func envOf(vars map[string]string) secrets.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestPayloadTierWins(t *testing.T) {
	r := secrets.NewResolver(
		map[string]string{"slack_token": "from-payload"},
		envOf(map[string]string{
			"slack_token":              "from-env-exact",
			"KIKET_SECRET_SLACK_TOKEN": "from-env-canonical",
		}),
	)

	got, ok := r.Get("slack_token")
	if !ok || got != "from-payload" {
		t.Errorf("Get() = %q, %v; want payload tier value", got, ok)
	}
}

func TestEnvExactKeyFallback(t *testing.T) {
	r := secrets.NewResolver(nil, envOf(map[string]string{
		"slack_token": "exact-value",
	}))

	got, ok := r.Get("slack_token")
	if !ok || got != "exact-value" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
}

func TestEnvCanonicalNameFallback(t *testing.T) {
	r := secrets.NewResolver(nil, envOf(map[string]string{
		"KIKET_SECRET_SLACK_BOT_TOKEN": "canonical-value",
	}))

	got, ok := r.Get("slack-bot.token")
	if !ok || got != "canonical-value" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
}

func TestMissingEverywhere(t *testing.T) {
	r := secrets.NewResolver(map[string]string{"other": "x"}, envOf(nil))

	if got, ok := r.Get("absent"); ok {
		t.Errorf("Get() = %q, want miss", got)
	}
}

func TestEmptyPayloadValueFallsThrough(t *testing.T) {
	r := secrets.NewResolver(
		map[string]string{"key": ""},
		envOf(map[string]string{"key": "env-value"}),
	)

	got, ok := r.Get("key")
	if !ok || got != "env-value" {
		t.Errorf("Get() = %q, %v; empty payload value should fall through", got, ok)
	}
}

func TestNilLookupDisablesEnvTier(t *testing.T) {
	r := secrets.NewResolver(map[string]string{"key": "v"}, nil)

	if _, ok := r.Get("absent"); ok {
		t.Error("nil lookup should disable the environment tier")
	}
	if got, _ := r.Get("key"); got != "v" {
		t.Errorf("Get(key) = %q", got)
	}
}

func TestEnvName(t *testing.T) {
	cases := map[string]string{
		"slack_token":     "KIKET_SECRET_SLACK_TOKEN",
		"slack-bot.token": "KIKET_SECRET_SLACK_BOT_TOKEN",
		"API key":         "KIKET_SECRET_API_KEY",
		"_weird__key_":    "KIKET_SECRET_WEIRD_KEY",
	}
	for in, want := range cases {
		if got := secrets.EnvName(in); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPayloadSecrets(t *testing.T) {
	payload := map[string]any{
		"secrets": map[string]any{
			"a":   "1",
			"b":   "2",
			"num": 42, // non-string values are dropped
		},
	}

	got := secrets.PayloadSecrets(payload)
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Errorf("PayloadSecrets() = %v", got)
	}

	if secrets.PayloadSecrets(map[string]any{}) != nil {
		t.Error("expected nil for payload without secrets field")
	}
}
