package payload

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/tidwall/jsonc"
)

var (
	// ErrMalformedPayload is returned when a located block is not a {"tickets": [...]} document
	ErrMalformedPayload = goerr.New("malformed ticket payload")

	// ErrInvalidDraft is returned for a ticket element missing a required field
	ErrInvalidDraft = goerr.New("invalid ticket draft")
)

// envelope is the top-level shape of the payload. Tickets is a pointer so an
// absent or null field can be told apart from an empty array.
type envelope struct {
	Tickets *[]json.RawMessage `json:"tickets"`
}

// rawDraft is the strict intermediate representation of one ticket element.
// Pointer fields distinguish absent from zero values.
type rawDraft struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	AcceptanceCriteria *[]string       `json:"acceptance_criteria"`
	TechnicalNotes     *string         `json:"technical_notes"`
	EstimatedHours     *float64        `json:"estimated_hours"`
	Priority           *string         `json:"priority"`
	Dependencies       *identifierList `json:"dependencies"`
}

// identifierList accepts dependency identifiers written as strings or numbers
type identifierList []string

func (l *identifierList) UnmarshalJSON(data []byte) error {
	var values []json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return goerr.Wrap(err, "dependencies must be an array")
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			ids = append(ids, s)
			continue
		}
		var n json.Number
		decoder := json.NewDecoder(bytes.NewReader(v))
		decoder.UseNumber()
		if err := decoder.Decode(&n); err != nil {
			return goerr.New("dependency must be a string or a number", goerr.V("value", string(v)))
		}
		ids = append(ids, n.String())
	}
	*l = ids
	return nil
}

// Rejected describes a ticket element that was dropped while parsing
type Rejected struct {
	Index int
	Err   error
}

// Parse decodes the inner text of a located block into drafts. Comments and
// trailing commas are tolerated; anything else that is not a
// {"tickets": [...]} object fails with ErrMalformedPayload. Elements that
// lack a required field are dropped and reported in the second return value
// while the remaining drafts keep their declared order.
func Parse(raw string) ([]model.Draft, []Rejected, error) {
	normalized := jsonc.ToJSON([]byte(raw))

	var env envelope
	if err := json.Unmarshal(normalized, &env); err != nil {
		return nil, nil, goerr.Wrap(ErrMalformedPayload, "failed to decode payload", goerr.V("cause", err.Error()))
	}
	if env.Tickets == nil {
		return nil, nil, goerr.Wrap(ErrMalformedPayload, "payload has no tickets array")
	}

	drafts := make([]model.Draft, 0, len(*env.Tickets))
	var rejected []Rejected
	for i, element := range *env.Tickets {
		draft, err := decodeDraft(element)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		drafts = append(drafts, *draft)
	}

	return drafts, rejected, nil
}

func decodeDraft(element json.RawMessage) (*model.Draft, error) {
	var rd rawDraft
	if err := json.Unmarshal(element, &rd); err != nil {
		return nil, goerr.Wrap(ErrInvalidDraft, "failed to decode ticket", goerr.V("cause", err.Error()))
	}

	missing := func(field string) error {
		return goerr.Wrap(ErrInvalidDraft, "required field is missing", goerr.V("field", field))
	}
	switch {
	case rd.Title == nil:
		return nil, missing("title")
	case rd.Description == nil:
		return nil, missing("description")
	case rd.AcceptanceCriteria == nil:
		return nil, missing("acceptance_criteria")
	case rd.EstimatedHours == nil:
		return nil, missing("estimated_hours")
	case rd.Priority == nil:
		return nil, missing("priority")
	}

	draft := &model.Draft{
		Title:              *rd.Title,
		Description:        *rd.Description,
		AcceptanceCriteria: *rd.AcceptanceCriteria,
		EstimatedHours:     *rd.EstimatedHours,
		Priority:           types.Priority(*rd.Priority),
		Dependencies:       []string{},
	}
	if rd.TechnicalNotes != nil {
		draft.TechnicalNotes = *rd.TechnicalNotes
	}
	if rd.Dependencies != nil {
		draft.Dependencies = []string(*rd.Dependencies)
	}

	if err := draft.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidDraft, "draft violates ticket model", goerr.V("cause", err.Error()))
	}

	return draft, nil
}
