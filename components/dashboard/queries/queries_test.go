package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

type stubSource struct {
	booted bool
	data   map[string]dashboard.SectionData
}

func (s *stubSource) Session() (dashboard.Session, bool) {
	return dashboard.Session{Role: dashboard.RoleSeller}, s.booted
}

func (s *stubSource) State() dashboard.NavigationState {
	return dashboard.NavigationState{Phase: dashboard.PhaseActive, ActiveSection: "wallet"}
}

func (s *stubSource) Menu() []dashboard.MenuItem {
	return []dashboard.MenuItem{{ID: "wallet", Label: "Wallet", Route: "#wallet", Position: 1}}
}

func (s *stubSource) Actions() []dashboard.ActionDefinition { return nil }

func (s *stubSource) SectionData(id string) (dashboard.SectionData, bool) {
	d, ok := s.data[id]
	return d, ok
}

func TestStateQuery(t *testing.T) {
	view, err := NewStateQuery(&stubSource{booted: true}).Query(context.Background(), StateInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if view.Phase != "active" || view.State.ActiveSection != "wallet" || len(view.Menu) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Role != dashboard.RoleSeller {
		t.Fatalf("expected seller role, got %s", view.Role)
	}
}

func TestStateQueryBeforeBoot(t *testing.T) {
	_, err := NewStateQuery(&stubSource{}).Query(context.Background(), StateInput{})
	if !errors.Is(err, dashboard.ErrNotBooted) {
		t.Fatalf("expected ErrNotBooted, got %v", err)
	}
}

func TestSectionDataQuery(t *testing.T) {
	source := &stubSource{data: map[string]dashboard.SectionData{
		"wallet": {
			SectionID: "wallet",
			State:     dashboard.CacheError,
			FetchedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			Err:       errors.New("wallet service down"),
		},
	}}
	view, err := NewSectionDataQuery(source).Query(context.Background(), SectionDataInput{SectionID: "wallet"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if view.State != "error" || view.Error != "wallet service down" || view.FetchedAt != "2025-05-01T10:00:00Z" {
		t.Fatalf("unexpected view %+v", view)
	}
	if _, err := NewSectionDataQuery(source).Query(context.Background(), SectionDataInput{SectionID: "nope"}); !errors.Is(err, dashboard.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}
