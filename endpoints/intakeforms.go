package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrFormKeyRequired is returned when an intake form operation is called
// without a form key.
var ErrFormKeyRequired = errors.New("endpoints: form key is required")

// IntakeFormsClient wraps the intake form and submission endpoints for one
// project.
type IntakeFormsClient struct {
	client    *Client
	projectID string
}

// IntakeForms returns an intake forms client scoped to a project.
func (c *Client) IntakeForms(projectID string) *IntakeFormsClient {
	return &IntakeFormsClient{client: c, projectID: projectID}
}

// FormListOpts filters an intake form listing. Nil booleans and zero
// values are omitted.
type FormListOpts struct {
	Active *bool
	Public *bool
	Limit  int
}

// List returns the project's intake forms.
func (f *IntakeFormsClient) List(ctx context.Context, opts FormListOpts) (map[string]any, error) {
	params := f.baseParams()
	if opts.Active != nil {
		params.Set("active", strconv.FormatBool(*opts.Active))
	}
	if opts.Public != nil {
		params.Set("public", strconv.FormatBool(*opts.Public))
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var out map[string]any
	if err := f.client.Get(ctx, "/api/v1/ext/intake_forms", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single intake form by key or ID.
func (f *IntakeFormsClient) Get(ctx context.Context, formKey string) (map[string]any, error) {
	if formKey == "" {
		return nil, ErrFormKeyRequired
	}
	var out map[string]any
	if err := f.client.Get(ctx, f.formPath(formKey, ""), f.baseParams(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PublicFormURL returns the shareable URL of a public form, or "" when
// the form is private or carries no URL.
func PublicFormURL(form map[string]any) string {
	if public, _ := form["public"].(bool); !public {
		return ""
	}
	formURL, _ := form["form_url"].(string)
	return formURL
}

// SubmissionListOpts filters a submission listing. Zero values are omitted.
type SubmissionListOpts struct {
	Status string
	Limit  int
	Since  time.Time
}

// ListSubmissions returns submissions for an intake form.
func (f *IntakeFormsClient) ListSubmissions(ctx context.Context, formKey string, opts SubmissionListOpts) (map[string]any, error) {
	if formKey == "" {
		return nil, ErrFormKeyRequired
	}
	params := f.baseParams()
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if !opts.Since.IsZero() {
		params.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}

	var out map[string]any
	if err := f.client.Get(ctx, f.formPath(formKey, "submissions"), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSubmission fetches a single submission by ID.
func (f *IntakeFormsClient) GetSubmission(ctx context.Context, formKey, submissionID string) (map[string]any, error) {
	if formKey == "" {
		return nil, ErrFormKeyRequired
	}
	if submissionID == "" {
		return nil, errors.New("endpoints: submission ID is required")
	}
	var out map[string]any
	if err := f.client.Get(ctx, f.formPath(formKey, "submissions/"+url.PathEscape(submissionID)), f.baseParams(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSubmission records a programmatic submission for an intake form.
// Metadata may be nil.
func (f *IntakeFormsClient) CreateSubmission(ctx context.Context, formKey string, data, metadata map[string]any) (map[string]any, error) {
	if formKey == "" {
		return nil, ErrFormKeyRequired
	}
	if data == nil {
		return nil, errors.New("endpoints: submission data is required")
	}

	body := map[string]any{
		"project_id": f.projectID,
		"data":       data,
	}
	if metadata != nil {
		body["metadata"] = metadata
	}

	var out map[string]any
	if err := f.client.Post(ctx, f.formPath(formKey, "submissions"), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveSubmission approves a pending submission. Notes are optional.
func (f *IntakeFormsClient) ApproveSubmission(ctx context.Context, formKey, submissionID, notes string) (map[string]any, error) {
	return f.reviewSubmission(ctx, formKey, submissionID, "approve", notes)
}

// RejectSubmission rejects a pending submission. Notes are optional.
func (f *IntakeFormsClient) RejectSubmission(ctx context.Context, formKey, submissionID, notes string) (map[string]any, error) {
	return f.reviewSubmission(ctx, formKey, submissionID, "reject", notes)
}

func (f *IntakeFormsClient) reviewSubmission(ctx context.Context, formKey, submissionID, action, notes string) (map[string]any, error) {
	if formKey == "" {
		return nil, ErrFormKeyRequired
	}
	if submissionID == "" {
		return nil, errors.New("endpoints: submission ID is required")
	}

	body := map[string]any{"project_id": f.projectID}
	if notes != "" {
		body["notes"] = notes
	}

	var out map[string]any
	path := f.formPath(formKey, "submissions/"+url.PathEscape(submissionID)+"/"+action)
	if err := f.client.Post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns submission counts by status for an intake form. The
// period ("day", "week", "month") is optional.
func (f *IntakeFormsClient) Stats(ctx context.Context, formKey, period string) (map[string]any, error) {
	if formKey == "" {
		return nil, ErrFormKeyRequired
	}
	params := f.baseParams()
	if period != "" {
		params.Set("period", period)
	}

	var out map[string]any
	if err := f.client.Get(ctx, f.formPath(formKey, "stats"), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *IntakeFormsClient) formPath(formKey, suffix string) string {
	p := "/api/v1/ext/intake_forms/" + url.PathEscape(formKey)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (f *IntakeFormsClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("project_id", f.projectID)
	return params
}
