package issues

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

type memStore struct {
	bills  map[string]*models.Bill
	issues []*models.BillIssue
}

func (m *memStore) GetBill(_ context.Context, billID string) (*models.Bill, error) {
	b, ok := m.bills[billID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (m *memStore) CreateIssue(_ context.Context, issue *models.BillIssue) error {
	issue.ID = "issue-" + string(rune('a'+len(m.issues)))
	m.issues = append(m.issues, issue)
	return nil
}

func (m *memStore) GetIssue(_ context.Context, issueID string) (*models.BillIssue, error) {
	for _, i := range m.issues {
		if i.ID == issueID {
			return i, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ResolveIssue(ctx context.Context, issueID, notes string, resolvedAt int64) error {
	i, err := m.GetIssue(ctx, issueID)
	if err != nil {
		return err
	}
	i.IsResolved, i.ResolutionNotes, i.ResolvedAt = true, notes, resolvedAt
	return nil
}

func (m *memStore) ListIssues(_ context.Context, openOnly bool) ([]models.BillIssue, error) {
	var out []models.BillIssue
	for i := len(m.issues) - 1; i >= 0; i-- {
		if openOnly && m.issues[i].IsResolved {
			continue
		}
		out = append(out, *m.issues[i])
	}
	return out, nil
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	store := &memStore{bills: map[string]*models.Bill{"b1": {ID: "b1", MemberID: "t1"}}}
	svc := NewService(store, func() time.Time { return time.Unix(1700000000, 0) })

	tests := []struct {
		name        string
		memberID    string
		billID      string
		description string
		wantErr     error
	}{
		{"owner reports", "t1", "b1", "Charged for lunch on a holiday", nil},
		{"someone else's bill", "t2", "b1", "Not mine", ErrNotBillOwner},
		{"unknown bill", "t1", "nope", "Where is it", storage.ErrNotFound},
		{"blank description", "t1", "b1", "   ", ErrInvalidDescription},
		{"too long", "t1", "b1", strings.Repeat("x", MaxDescriptionLength+1), ErrInvalidDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, err := svc.Report(ctx, tt.memberID, tt.billID, tt.description)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Report() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Report() failed: %v", err)
			}
			if issue.IsResolved || issue.CreatedAt != 1700000000 || issue.ID == "" {
				t.Errorf("issue = %+v", issue)
			}
		})
	}
}

func TestResolveAndList(t *testing.T) {
	ctx := context.Background()
	store := &memStore{bills: map[string]*models.Bill{"b1": {ID: "b1", MemberID: "t1"}}}
	svc := NewService(store, func() time.Time { return time.Unix(1700000500, 0) })

	first, _ := svc.Report(ctx, "t1", "b1", "First")
	second, _ := svc.Report(ctx, "t1", "b1", "Second")

	resolved, err := svc.Resolve(ctx, first.ID, "  Refunded  ")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !resolved.IsResolved || resolved.ResolutionNotes != "Refunded" || resolved.ResolvedAt != 1700000500 {
		t.Errorf("resolved = %+v", resolved)
	}

	open, _ := svc.List(ctx, true)
	if len(open) != 1 || open[0].ID != second.ID {
		t.Errorf("open = %+v, want only the second issue", open)
	}
	all, _ := svc.List(ctx, false)
	if len(all) != 2 || all[0].ID != second.ID {
		t.Errorf("all = %+v, want newest first", all)
	}

	if _, err := svc.Resolve(ctx, "missing", ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Resolve unknown: err = %v, want ErrNotFound", err)
	}
}
