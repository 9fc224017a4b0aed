package queries

import (
	"context"
	"fmt"
	"time"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// SectionDataInput identifies a section entry.
type SectionDataInput struct {
	SectionID string
}

// SectionDataView is the JSON form of a cache entry.
type SectionDataView struct {
	SectionID string             `json:"section_id"`
	State     string             `json:"state"`
	Records   []dashboard.Record `json:"records"`
	FetchedAt string             `json:"fetched_at,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type sectionDataSource interface {
	SectionData(id string) (dashboard.SectionData, bool)
}

// SectionDataQuery reads cached section data without triggering a load.
type SectionDataQuery struct {
	source sectionDataSource
}

// NewSectionDataQuery builds the query.
func NewSectionDataQuery(source sectionDataSource) *SectionDataQuery {
	return &SectionDataQuery{source: source}
}

var _ gocommand.Querier[SectionDataInput, SectionDataView] = (*SectionDataQuery)(nil)

// Query returns the entry or ErrSectionNotFound when nothing is cached.
func (q *SectionDataQuery) Query(_ context.Context, input SectionDataInput) (SectionDataView, error) {
	data, ok := q.source.SectionData(input.SectionID)
	if !ok {
		return SectionDataView{}, fmt.Errorf("%w: %s", dashboard.ErrSectionNotFound, input.SectionID)
	}
	view := SectionDataView{
		SectionID: data.SectionID,
		State:     data.State.String(),
		Records:   data.Records,
	}
	if !data.FetchedAt.IsZero() {
		view.FetchedAt = data.FetchedAt.UTC().Format(time.RFC3339)
	}
	if data.Err != nil {
		view.Error = data.Err.Error()
	}
	return view, nil
}
