package encompass

import (
	"net/url"
	"strconv"
	"strings"
)

// Loan update persistence modes.
const (
	PersistentTransient = "transient"
	PersistentPermanent = "permanent"
)

// Loan views.
const (
	ViewEntity = "entity"
	ViewID     = "id"
)

// MilestoneAction finishes or unfinishes a milestone on update.
type MilestoneAction string

// Milestone actions.
const (
	MilestoneActionNone     MilestoneAction = ""
	MilestoneActionFinish   MilestoneAction = "finish"
	MilestoneActionUnfinish MilestoneAction = "unfinish"
)

// Valid reports whether the action is empty, finish or unfinish.
func (a MilestoneAction) Valid() bool {
	switch a {
	case MilestoneActionNone, MilestoneActionFinish, MilestoneActionUnfinish:
		return true
	default:
		return false
	}
}

// LoanUpdateOptions are the query parameters of a loan update.
type LoanUpdateOptions struct {
	AppendData bool
	// Persistent defaults to "transient".
	Persistent string
	// View defaults to "entity".
	View         string
	LoanTemplate string
}

// DefaultLoanUpdateOptions returns appendData=false, persistent=transient, view=entity.
func DefaultLoanUpdateOptions() *LoanUpdateOptions {
	return &LoanUpdateOptions{
		AppendData: false,
		Persistent: PersistentTransient,
		View:       ViewEntity,
	}
}

// Values encodes the options. A nil receiver encodes the defaults.
func (o *LoanUpdateOptions) Values() url.Values {
	if o == nil {
		o = DefaultLoanUpdateOptions()
	}

	values := url.Values{}
	values.Set("appendData", strconv.FormatBool(o.AppendData))
	values.Set("persistent", valueOr(o.Persistent, PersistentTransient))
	values.Set("view", valueOr(o.View, ViewEntity))

	if o.LoanTemplate != "" {
		values.Set("loanTemplate", o.LoanTemplate)
	}

	return values
}

// CreateLoanOptions are the query parameters of a loan creation.
type CreateLoanOptions struct {
	// View defaults to "entity" so the created loan is returned.
	View         string
	LoanTemplate string
	LoanFolder   string
}

// Values encodes the options.
func (o *CreateLoanOptions) Values() url.Values {
	values := url.Values{}
	if o == nil {
		values.Set("view", ViewEntity)

		return values
	}

	values.Set("view", valueOr(o.View, ViewEntity))

	if o.LoanTemplate != "" {
		values.Set("loanTemplate", o.LoanTemplate)
	}

	if o.LoanFolder != "" {
		values.Set("loanFolder", o.LoanFolder)
	}

	return values
}

// FieldReaderOptions configures a field reader call.
type FieldReaderOptions struct {
	IncludeMetadata bool
}

// Values encodes the options.
func (o *FieldReaderOptions) Values() url.Values {
	values := url.Values{}
	if o != nil && o.IncludeMetadata {
		values.Set("includeMetadata", "true")
	}

	return values
}

// ListUsersOptions filters the company user list.
type ListUsersOptions struct {
	ViewEmailSignature bool
	GroupID            string
	RoleID             string
	PersonaID          string
	OrganizationID     string
	UserName           string
	Start              int
	Limit              int
}

// Values encodes the options. Zero values are omitted.
func (o *ListUsersOptions) Values() url.Values {
	values := url.Values{}
	if o == nil {
		return values
	}

	if o.ViewEmailSignature {
		values.Set("viewEmailSignature", "true")
	}

	setIfNotEmpty(values, "groupId", o.GroupID)
	setIfNotEmpty(values, "roleId", o.RoleID)
	setIfNotEmpty(values, "personaId", o.PersonaID)
	setIfNotEmpty(values, "organizationId", o.OrganizationID)
	setIfNotEmpty(values, "userName", o.UserName)

	if o.Start > 0 {
		values.Set("start", strconv.Itoa(o.Start))
	}

	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}

	return values
}

// AssignMilestoneOptions assigns a user to a named milestone of a loan.
type AssignMilestoneOptions struct {
	LoanGUID  string
	Milestone string
	UserID    string
}

// UpdateMilestoneOptions updates a named milestone of a loan.
type UpdateMilestoneOptions struct {
	LoanGUID  string
	Milestone string
	// Options is sent as the request body.
	Options interface{}
	Action  MilestoneAction
}

// Values encodes the action parameter.
func (o *UpdateMilestoneOptions) Values() url.Values {
	values := url.Values{}
	if o != nil && o.Action != MilestoneActionNone {
		values.Set("action", string(o.Action))
	}

	return values
}

// EntitiesValues encodes an entity list as a single comma separated parameter.
func EntitiesValues(entities []string) url.Values {
	values := url.Values{}
	if len(entities) > 0 {
		values.Set("entities", strings.Join(entities, ","))
	}

	return values
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
