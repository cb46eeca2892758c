// Package issues lets members dispute their bills and admins resolve the disputes.
package issues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

// MaxDescriptionLength is the longest accepted issue description, in characters.
const MaxDescriptionLength = 500

var (
	ErrNotBillOwner       = errors.New("issues can only be reported on your own bills")
	ErrInvalidDescription = errors.New("description must be 1 to 500 characters")
)

// Store is the persistence the issue service needs.
type Store interface {
	storage.IssueStore
	GetBill(ctx context.Context, billID string) (*models.Bill, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Report opens an issue on one of memberID's bills.
func (s *Service) Report(ctx context.Context, memberID, billID, description string) (*models.BillIssue, error) {
	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(description); n == 0 || n > MaxDescriptionLength {
		return nil, ErrInvalidDescription
	}

	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.MemberID != memberID {
		return nil, ErrNotBillOwner
	}

	issue := &models.BillIssue{
		MemberID:    memberID,
		BillID:      billID,
		Description: description,
		CreatedAt:   s.now().Unix(),
	}
	if err := s.store.CreateIssue(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to report issue: %w", err)
	}
	slog.Info("Bill issue reported", "issue_id", issue.ID, "bill_id", billID, "member_id", memberID)
	return issue, nil
}

// Resolve closes an issue with notes.
func (s *Service) Resolve(ctx context.Context, issueID, notes string) (*models.BillIssue, error) {
	if err := s.store.ResolveIssue(ctx, issueID, strings.TrimSpace(notes), s.now().Unix()); err != nil {
		return nil, err
	}
	slog.Info("Bill issue resolved", "issue_id", issueID)
	return s.store.GetIssue(ctx, issueID)
}

// List returns issues newest first.
func (s *Service) List(ctx context.Context, openOnly bool) ([]models.BillIssue, error) {
	return s.store.ListIssues(ctx, openOnly)
}
