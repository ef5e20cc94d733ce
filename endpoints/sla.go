package endpoints

import (
	"context"
	"fmt"
	"net/url"
)

// SLAEventsClient wraps the workflow SLA events endpoint for one project.
type SLAEventsClient struct {
	client    *Client
	projectID string
}

// SLAEvents returns an SLA events client scoped to a project.
func (c *Client) SLAEvents(projectID string) *SLAEventsClient {
	return &SLAEventsClient{client: c, projectID: projectID}
}

// SLAListOpts filters an SLA event listing. Zero values are omitted.
type SLAListOpts struct {
	IssueID string
	State   string
	Limit   int
}

// List returns SLA events for the project.
func (s *SLAEventsClient) List(ctx context.Context, opts SLAListOpts) (map[string]any, error) {
	params := url.Values{}
	params.Set("project_id", s.projectID)
	if opts.IssueID != "" {
		params.Set("issue_id", opts.IssueID)
	}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var out map[string]any
	if err := s.client.Get(ctx, "/api/v1/ext/sla/events", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
