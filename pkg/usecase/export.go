package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ExportUseCase assembles the per-company export document
type ExportUseCase struct {
	repo     interfaces.Repository
	archiver interfaces.ExportArchiver
	prefix   string
	now      func() time.Time
}

func NewExportUseCase(repo interfaces.Repository, archiver interfaces.ExportArchiver, prefix string, now func() time.Time) *ExportUseCase {
	return &ExportUseCase{
		repo:     repo,
		archiver: archiver,
		prefix:   prefix,
		now:      now,
	}
}

// BuildExport collects the company record, its active conversation and its
// tickets. It has no side effects.
func (uc *ExportUseCase) BuildExport(ctx context.Context, companyID types.CompanyID) (*model.ExportDocument, error) {
	company, err := uc.repo.Company().Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrCompanyNotFound, "company not found", goerr.V(CompanyIDKey, companyID))
		}
		return nil, goerr.Wrap(err, "failed to get company", goerr.V(CompanyIDKey, companyID))
	}

	var (
		turns   []model.Turn
		tickets []*model.Ticket
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		session, err := uc.repo.Conversation().GetActiveSession(egCtx, companyID)
		if errors.Is(err, interfaces.ErrNotFound) {
			turns = []model.Turn{}
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to get active session", goerr.V(CompanyIDKey, companyID))
		}

		turns, err = uc.repo.Conversation().ListTurns(egCtx, session.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to list turns", goerr.V(SessionIDKey, session.ID))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		tickets, err = uc.repo.Ticket().ListByCompany(egCtx, companyID)
		if err != nil {
			return goerr.Wrap(err, "failed to list tickets", goerr.V(CompanyIDKey, companyID))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &model.ExportDocument{
		Company:      company,
		Conversation: turns,
		Tickets:      tickets,
		ExportedAt:   uc.now(),
	}, nil
}

// Render encodes the document as indented JSON
func (uc *ExportUseCase) Render(doc *model.ExportDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode export document")
	}
	return data, nil
}

// ExportFileName returns <prefix>_<company name>_<unix millis>.json with the
// company name made safe for use as a file name
func (uc *ExportUseCase) ExportFileName(companyName string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d.json", uc.prefix, sanitizeFileName(companyName), at.UnixMilli())
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "company"
	}

	return strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		case unicode.IsSpace(r), unicode.IsControl(r):
			return '_'
		default:
			return r
		}
	}, name)
}

// Archive stores a rendered copy of the document when an archiver is
// configured and returns its location. Without an archiver it does nothing.
func (uc *ExportUseCase) Archive(ctx context.Context, doc *model.ExportDocument) (string, error) {
	if uc.archiver == nil {
		return "", nil
	}

	data, err := uc.Render(doc)
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("exports/%s/%s", doc.Company.ID, uc.ExportFileName(doc.Company.Name, doc.ExportedAt))
	location, err := uc.archiver.Put(ctx, path, data)
	if err != nil {
		return "", goerr.Wrap(err, "failed to archive export", goerr.V(CompanyIDKey, doc.Company.ID))
	}

	logging.From(ctx).Info("export archived", "company_id", doc.Company.ID, "location", location)
	return location, nil
}
