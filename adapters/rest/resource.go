package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/lborres/assessgate/core"
)

// Resources exposed by the backend.
const (
	Users           = "users"
	Roles           = "roles"
	Permissions     = "permissions"
	Psychologists   = "psychologists"
	Patients        = "patients"
	Assessments     = "assessments"
	AssessmentNotes = "assessment-notes"
	Questions       = "questions"
	Responses       = "responses"
)

// Filter is the backend's "filter" query parameter.
type Filter struct {
	Where   map[string]any `json:"where,omitempty"`
	Order   []string       `json:"order,omitempty"`
	Include []any          `json:"include,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Skip    int            `json:"skip,omitempty"`
}

func (f *Filter) query() (url.Values, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return url.Values{"filter": []string{string(b)}}, nil
}

// Resource is a CRUD collection such as /patients.
type Resource struct {
	client *Client
	name   string
}

func (c *Client) Resource(name string) *Resource {
	return &Resource{client: c, name: name}
}

func (r *Resource) Name() string {
	return r.name
}

func (r *Resource) path(id string) string {
	if id == "" {
		return "/" + r.name
	}
	return "/" + r.name + "/" + url.PathEscape(id)
}

func (r *Resource) List(ctx context.Context, filter *Filter, out any) error {
	q, err := filter.query()
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodGet, r.path(""), q, nil, out)
}

func (r *Resource) Get(ctx context.Context, id string, filter *Filter, out any) error {
	q, err := filter.query()
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodGet, r.path(id), q, nil, out)
}

func (r *Resource) Create(ctx context.Context, in, out any) error {
	return r.client.do(ctx, http.MethodPost, r.path(""), nil, in, out)
}

// Update sends a partial update.
func (r *Resource) Update(ctx context.Context, id string, in, out any) error {
	return r.client.do(ctx, http.MethodPatch, r.path(id), nil, in, out)
}

func (r *Resource) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, r.path(id), nil, nil, nil)
}

// CreateBulk posts many records at once to /<resource>/bulk.
func (r *Resource) CreateBulk(ctx context.Context, in, out any) error {
	return r.client.do(ctx, http.MethodPost, r.path("")+"/bulk", nil, in, out)
}

// Record is a loosely typed backend row.
type Record map[string]any

// ListRecords lists a resource as generic records.
func (c *Client) ListRecords(ctx context.Context, resource string) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.Resource(resource).List(ctx, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DashboardStats fetches the landing page counters concurrently.
func (c *Client) DashboardStats(ctx context.Context) (core.DashboardStats, error) {
	var (
		stats       core.DashboardStats
		assessments []Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var out []Record
		if err := c.Resource(Psychologists).List(gctx, nil, &out); err != nil {
			return err
		}
		stats.Psychologists = len(out)
		return nil
	})
	g.Go(func() error {
		var out []Record
		if err := c.Resource(Patients).List(gctx, nil, &out); err != nil {
			return err
		}
		stats.Patients = len(out)
		return nil
	})
	g.Go(func() error {
		return c.Resource(Assessments).List(gctx, nil, &assessments)
	})

	if err := g.Wait(); err != nil {
		return core.DashboardStats{}, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	stats.Assessments = len(assessments)
	for _, a := range assessments {
		if status, _ := a["status"].(string); status == "completed" {
			stats.CompletedAssessments++
		}
	}
	return stats, nil
}

// DeleteRecord deletes one row of a resource.
func (c *Client) DeleteRecord(ctx context.Context, resource, id string) error {
	return c.Resource(resource).Delete(ctx, id)
}
