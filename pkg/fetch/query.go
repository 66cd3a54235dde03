package fetch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CaseType selects which cause list the court workflow renders.
type CaseType string

const (
	CaseTypeCivil    CaseType = "civ"
	CaseTypeCriminal CaseType = "cri"
)

// ParseCaseType accepts the wire values as well as the long names.
// An empty string yields CaseTypeCivil, matching the backend default.
func ParseCaseType(s string) (CaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "civ", "civil":
		return CaseTypeCivil, nil
	case "cri", "criminal":
		return CaseTypeCriminal, nil
	}
	return "", newValidationError("unknown case type %q", s)
}

// Query is the user's intent before any network call. It is one of
// CnrQuery or CourtQuery.
type Query interface {
	Kind() WorkflowKind
	isQuery()
}

// CnrQuery looks up a single case by its CNR.
type CnrQuery struct {
	CNR string `json:"cnr" validate:"required"`
}

func (CnrQuery) Kind() WorkflowKind { return KindCnr }
func (CnrQuery) isQuery()           {}

func (q CnrQuery) normalized() CnrQuery {
	return CnrQuery{CNR: strings.TrimSpace(q.CNR)}
}

// CourtQuery selects a court's cause list for a date.
type CourtQuery struct {
	State            string   `json:"state" validate:"required"`
	District         string   `json:"district" validate:"required"`
	CourtComplexCode string   `json:"court_complex_code" validate:"required"`
	CourtName        string   `json:"court_name" validate:"required"`
	Date             string   `json:"date" validate:"required,datetime=02-01-2006"`
	CaseType         CaseType `json:"case_type" validate:"oneof=civ cri"`
}

func (CourtQuery) Kind() WorkflowKind { return KindCourt }
func (CourtQuery) isQuery()           {}

func (q CourtQuery) normalized() CourtQuery {
	out := CourtQuery{
		State:            strings.TrimSpace(q.State),
		District:         strings.TrimSpace(q.District),
		CourtComplexCode: strings.TrimSpace(q.CourtComplexCode),
		CourtName:        strings.TrimSpace(q.CourtName),
		Date:             strings.TrimSpace(q.Date),
		CaseType:         q.CaseType,
	}
	if out.CaseType == "" {
		out.CaseType = CaseTypeCivil
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks that every required field of q is filled in.
func Validate(q Query) error {
	switch v := q.(type) {
	case CnrQuery:
		return validateStruct(v.normalized())
	case CourtQuery:
		return validateStruct(v.normalized())
	case nil:
		return newValidationError("query is required")
	}
	return newValidationError("unsupported query type %T", q)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Err: err}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "datetime":
			msgs = append(msgs, fe.Field()+" must be a dd-mm-yyyy date")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}
	return newValidationError("%s", strings.Join(msgs, "; "))
}

func describeQuery(q Query) string {
	switch v := q.(type) {
	case CnrQuery:
		return "cnr " + v.normalized().CNR
	case CourtQuery:
		n := v.normalized()
		return fmt.Sprintf("court %s / %s / %s / %s on %s (%s)",
			n.State, n.District, n.CourtComplexCode, n.CourtName, n.Date, n.CaseType)
	}
	return fmt.Sprintf("%T", q)
}
