package endpoints_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kiket-dev/dispatch/endpoints"
)

func TestIntakeFormsList(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":[]}`)
	c := newClient(srv)

	active := true
	_, err := c.IntakeForms("prj_1").List(context.Background(), endpoints.FormListOpts{
		Active: &active,
		Limit:  10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.path != "/api/v1/ext/intake_forms" {
		t.Errorf("path = %q", rec.path)
	}
	for _, want := range []string{"project_id=prj_1", "active=true", "limit=10"} {
		if !strings.Contains(rec.query, want) {
			t.Errorf("query %q missing %q", rec.query, want)
		}
	}
	if strings.Contains(rec.query, "public=") {
		t.Errorf("query %q carries an unset public filter", rec.query)
	}
}

func TestIntakeFormsGetRequiresKey(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	c := newClient(srv)

	_, err := c.IntakeForms("prj_1").Get(context.Background(), "")
	if !errors.Is(err, endpoints.ErrFormKeyRequired) {
		t.Errorf("err = %v, want ErrFormKeyRequired", err)
	}
}

func TestIntakeFormsListSubmissions(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"data":[]}`)
	c := newClient(srv)

	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_, err := c.IntakeForms("prj_1").ListSubmissions(context.Background(), "contact-us", endpoints.SubmissionListOpts{
		Status: "pending",
		Since:  since,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.path != "/api/v1/ext/intake_forms/contact-us/submissions" {
		t.Errorf("path = %q", rec.path)
	}
	for _, want := range []string{"status=pending", "since=2026-08-01T12%3A00%3A00Z"} {
		if !strings.Contains(rec.query, want) {
			t.Errorf("query %q missing %q", rec.query, want)
		}
	}
}

func TestIntakeFormsCreateSubmission(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"id":7,"status":"pending"}`)
	c := newClient(srv)

	out, err := c.IntakeForms("prj_1").CreateSubmission(context.Background(), "contact-us",
		map[string]any{"email": "a@example.com"},
		map[string]any{"source": "widget"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if out["status"] != "pending" {
		t.Errorf("out = %v", out)
	}
	if rec.method != http.MethodPost || rec.path != "/api/v1/ext/intake_forms/contact-us/submissions" {
		t.Errorf("%s %s", rec.method, rec.path)
	}
	if rec.body["project_id"] != "prj_1" {
		t.Errorf("body = %v", rec.body)
	}
	data, _ := rec.body["data"].(map[string]any)
	if data["email"] != "a@example.com" {
		t.Errorf("body = %v", rec.body)
	}
}

func TestIntakeFormsApproveSubmission(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"id":7,"status":"approved"}`)
	c := newClient(srv)

	out, err := c.IntakeForms("prj_1").ApproveSubmission(context.Background(), "contact-us", "7", "looks good")
	if err != nil {
		t.Fatal(err)
	}
	if out["status"] != "approved" {
		t.Errorf("out = %v", out)
	}
	if rec.path != "/api/v1/ext/intake_forms/contact-us/submissions/7/approve" {
		t.Errorf("path = %q", rec.path)
	}
	if rec.body["notes"] != "looks good" {
		t.Errorf("body = %v", rec.body)
	}
}

func TestIntakeFormsStats(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"total_submissions":3,"pending":1}`)
	c := newClient(srv)

	out, err := c.IntakeForms("prj_1").Stats(context.Background(), "contact-us", "week")
	if err != nil {
		t.Fatal(err)
	}
	if out["total_submissions"] != 3.0 {
		t.Errorf("out = %v", out)
	}
	if rec.path != "/api/v1/ext/intake_forms/contact-us/stats" {
		t.Errorf("path = %q", rec.path)
	}
	if !strings.Contains(rec.query, "period=week") {
		t.Errorf("query = %q", rec.query)
	}
}

func TestPublicFormURL(t *testing.T) {
	public := map[string]any{"public": true, "form_url": "https://forms.example.com/contact-us"}
	if got := endpoints.PublicFormURL(public); got != "https://forms.example.com/contact-us" {
		t.Errorf("PublicFormURL = %q", got)
	}
	private := map[string]any{"public": false, "form_url": "https://forms.example.com/internal"}
	if got := endpoints.PublicFormURL(private); got != "" {
		t.Errorf("PublicFormURL = %q for private form", got)
	}
}
