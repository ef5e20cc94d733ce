package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// CustomDataClient wraps the extension custom data endpoints for one project.
type CustomDataClient struct {
	client    *Client
	projectID string
}

// CustomData returns a custom data client scoped to a project.
func (c *Client) CustomData(projectID string) *CustomDataClient {
	return &CustomDataClient{client: c, projectID: projectID}
}

// List returns records from a custom data table. A zero limit uses the
// platform default of 50. Filters are serialized as a JSON query parameter.
func (cd *CustomDataClient) List(ctx context.Context, module, table string, limit int, filters map[string]any) (map[string]any, error) {
	if limit <= 0 {
		limit = 50
	}
	params := cd.baseParams()
	params.Set("limit", fmt.Sprintf("%d", limit))
	if len(filters) > 0 {
		raw, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("endpoints: marshal filters: %w", err)
		}
		params.Set("filters", string(raw))
	}

	var out map[string]any
	if err := cd.client.Get(ctx, cd.path(module, table, ""), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single record by ID.
func (cd *CustomDataClient) Get(ctx context.Context, module, table, recordID string) (map[string]any, error) {
	var out map[string]any
	if err := cd.client.Get(ctx, cd.path(module, table, recordID), cd.baseParams(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a record into a custom data table.
func (cd *CustomDataClient) Create(ctx context.Context, module, table string, record map[string]any) (map[string]any, error) {
	var out map[string]any
	path := cd.path(module, table, "") + "?" + cd.baseParams().Encode()
	if err := cd.client.Post(ctx, path, map[string]any{"record": record}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches an existing record.
func (cd *CustomDataClient) Update(ctx context.Context, module, table, recordID string, record map[string]any) (map[string]any, error) {
	var out map[string]any
	path := cd.path(module, table, recordID) + "?" + cd.baseParams().Encode()
	if err := cd.client.Patch(ctx, path, map[string]any{"record": record}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record.
func (cd *CustomDataClient) Delete(ctx context.Context, module, table, recordID string) error {
	path := cd.path(module, table, recordID) + "?" + cd.baseParams().Encode()
	return cd.client.Delete(ctx, path)
}

func (cd *CustomDataClient) path(module, table, recordID string) string {
	p := "/api/v1/ext/custom_data/" + url.PathEscape(module) + "/" + url.PathEscape(table)
	if recordID != "" {
		p += "/" + url.PathEscape(recordID)
	}
	return p
}

func (cd *CustomDataClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("project_id", cd.projectID)
	return params
}
