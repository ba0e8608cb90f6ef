package candidate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/validator"
)

// scanPageSize is the page size used when scanning for a single record.
const scanPageSize = 50

var (
	ErrNotFound       = errors.New("candidate not found")
	ErrPageOutOfRange = errors.New("page out of range")
)

// Backend is the slice of the gateway the directory needs.
type Backend interface {
	ListCandidates(ctx context.Context, page, limit int) (*model.CandidatePage, error)
	GetCandidate(ctx context.Context, id string) (*model.Candidate, error)
	CreateCandidate(ctx context.Context, form model.CandidateForm) (*model.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, form model.CandidateForm) (*model.Candidate, error)
	DeleteCandidate(ctx context.Context, id string) error
}

// Page is one server page after client-side filtering.
type Page struct {
	Number     int               `json:"page"`
	Size       int               `json:"perPage"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
	Loaded     int               `json:"loaded"`
	Candidates []model.Candidate `json:"candidates"`
}

// TotalPages is ceil(total/size).
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Directory lists, filters and edits candidate records.
type Directory struct {
	backend  Backend
	pageSize int
	log      zerolog.Logger
}

func NewDirectory(backend Backend, pageSize int, log zerolog.Logger) *Directory {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Directory{
		backend:  backend,
		pageSize: pageSize,
		log:      log.With().Str("component", "candidate_directory").Logger(),
	}
}

// PageSize is the fixed page size.
func (d *Directory) PageSize() int { return d.pageSize }

// Page fetches page number (1-based) and filters it client-side.
func (d *Directory) Page(ctx context.Context, number int, f Filter) (*Page, error) {
	if number < 1 {
		return nil, ErrPageOutOfRange
	}
	if errs := f.Validate(); errs != nil {
		return nil, &validator.Error{Message: "Invalid filter.", Fields: errs}
	}

	res, err := d.backend.ListCandidates(ctx, number, d.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates page %d: %w", number, err)
	}
	return &Page{
		Number:     number,
		Size:       d.pageSize,
		TotalItems: res.Meta.Total,
		TotalPages: TotalPages(res.Meta.Total, d.pageSize),
		Loaded:     len(res.Results),
		Candidates: Apply(res.Results, f),
	}, nil
}

// CanGoTo reports whether target is a valid page change from p.
func (p *Page) CanGoTo(target int) bool {
	return target >= 1 && target <= p.TotalPages
}

// Get fetches one candidate.
func (d *Directory) Get(ctx context.Context, id string) (*model.Candidate, error) {
	c, err := d.backend.GetCandidate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return c, nil
}

// Create validates the form and creates a record. Validation failures, local
// or from the server, come back as *validator.Error.
func (d *Directory) Create(ctx context.Context, form model.CandidateForm) (*model.Candidate, error) {
	form = normalizeForm(form)
	if err := validator.Check(form); err != nil {
		return nil, err
	}
	c, err := d.backend.CreateCandidate(ctx, form)
	if err != nil {
		return nil, asFormError("create candidate", err)
	}
	d.log.Info().Str("email", form.Email).Msg("Candidate created")
	return c, nil
}

// Update edits record id. The form is validated before any request goes
// out; the email is immutable, so the stored address replaces whatever the
// form carries once the record is loaded.
func (d *Directory) Update(ctx context.Context, id string, form model.CandidateForm) (*model.Candidate, error) {
	form = normalizeForm(form)
	if err := withoutField(validator.Check(form), "email"); err != nil {
		return nil, err
	}

	existing, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	form.Email = existing.Email

	c, err := d.backend.UpdateCandidate(ctx, existing.ID, form)
	if err != nil {
		return nil, asFormError("update candidate", err)
	}
	d.log.Info().Str("candidate_id", existing.ID).Msg("Candidate updated")
	return c, nil
}

// withoutField drops one field from a validation error, returning nil when
// nothing else failed.
func withoutField(err error, field string) error {
	fields := validator.Fields(err)
	if err == nil || fields == nil {
		return err
	}
	rest := make(map[string]string, len(fields))
	for k, v := range fields {
		if k != field {
			rest[k] = v
		}
	}
	if len(rest) == 0 {
		return nil
	}
	return &validator.Error{Message: err.Error(), Fields: rest}
}

// Delete removes a record.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.backend.DeleteCandidate(ctx, id); err != nil {
		return fmt.Errorf("delete candidate %s: %w", id, err)
	}
	d.log.Info().Str("candidate_id", id).Msg("Candidate deleted")
	return nil
}

// FindByEmail scans every page for the candidate with the given email.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*model.Candidate, error) {
	want := strings.ToLower(strings.TrimSpace(email))
	for page := 1; ; page++ {
		res, err := d.backend.ListCandidates(ctx, page, scanPageSize)
		if err != nil {
			return nil, fmt.Errorf("scan candidates page %d: %w", page, err)
		}
		for _, c := range res.Results {
			if strings.ToLower(c.Email) == want {
				return &c, nil
			}
		}
		if len(res.Results) == 0 || page >= TotalPages(res.Meta.Total, scanPageSize) {
			return nil, ErrNotFound
		}
	}
}

func normalizeForm(f model.CandidateForm) model.CandidateForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.Qualification = strings.TrimSpace(f.Qualification)
	f.Skills = model.NormalizeSkills(f.Skills)
	return f
}

// asFormError turns a server field-error reply into *validator.Error so
// forms merge it verbatim; other errors are wrapped unchanged.
func asFormError(op string, err error) error {
	var ge *gateway.Error
	if errors.As(err, &ge) && ge.Kind == gateway.KindValidation {
		return &validator.Error{Message: ge.Message, Fields: ge.Fields}
	}
	return fmt.Errorf("%s: %w", op, err)
}
