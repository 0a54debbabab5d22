package encompass

import (
	"context"
	"fmt"
	"strings"
)

// TokenIntrospection is the result of the token introspection endpoint.
type TokenIntrospection struct {
	Active                bool   `json:"active"`
	Scope                 string `json:"scope"`
	ClientID              string `json:"client_id"`
	Username              string `json:"username"`
	TokenType             string `json:"token_type"`
	Exp                   int64  `json:"exp"`
	Sub                   string `json:"sub"`
	EncompassInstanceID   string `json:"encompass_instance_id"`
	UserName              string `json:"user_name"`
	UserKey               string `json:"user_key"`
	EncompassUser         string `json:"encompass_user"`
	IdentityType          string `json:"identity_type"`
	EncompassInstanceType string `json:"encompass_instance_type"`
	EncompassClientID     string `json:"encompass_client_id"`
	RealmName             string `json:"realm_name"`
	BearerToken           string `json:"bearer_token,omitempty"`
}

// Match types accepted by pipeline filter terms.
const (
	MatchExact               = "exact"
	MatchEquals              = "equals"
	MatchNotEquals           = "notEquals"
	MatchGreaterThan         = "greaterThan"
	MatchGreaterThanOrEquals = "greaterThanOrEquals"
	MatchLessThan            = "lessThan"
	MatchLessThanOrEquals    = "lessThanOrEquals"
	MatchStartsWith          = "startsWith"
	MatchContains            = "contains"
	MatchIsEmpty             = "isEmpty"
	MatchIsNotEmpty          = "isNotEmpty"
	FilterOperatorAnd        = "and"
	FilterOperatorOr         = "or"
	SortAscending            = "asc"
	SortDescending           = "desc"
)

const (
	canonicalNameLoanNumber  = "Loan.LoanNumber"
	defaultLoanAssociateType = "User"
)

// SortOrder orders pipeline rows by a canonical field.
type SortOrder struct {
	CanonicalName string `json:"canonicalName"`
	Order         string `json:"order"`
}

// Filter is either a group (Operator and Terms) or a single term
// (CanonicalName, MatchType and Value). Groups nest.
type Filter struct {
	Operator      string      `json:"operator,omitempty"`
	Terms         []Filter    `json:"terms,omitempty"`
	CanonicalName string      `json:"canonicalName,omitempty"`
	MatchType     string      `json:"matchType,omitempty"`
	Value         interface{} `json:"value,omitempty"`
	Precision     string      `json:"precision,omitempty"`
}

// And groups terms with the and operator.
func And(terms ...Filter) *Filter {
	return &Filter{Operator: FilterOperatorAnd, Terms: terms}
}

// Or groups terms with the or operator.
func Or(terms ...Filter) *Filter {
	return &Filter{Operator: FilterOperatorOr, Terms: terms}
}

// Term builds a single filter term.
func Term(canonicalName, matchType string, value interface{}) Filter {
	return Filter{CanonicalName: canonicalName, MatchType: matchType, Value: value}
}

// PipelineContract selects loans either by GUID or by filter.
type PipelineContract struct {
	LoanGUIDs []string    `json:"loanGuids,omitempty"`
	Filter    *Filter     `json:"filter,omitempty"`
	Fields    []string    `json:"fields,omitempty"`
	SortOrder []SortOrder `json:"sortOrder,omitempty"`
}

// PipelineRow is one loan in a pipeline view.
type PipelineRow struct {
	LoanGUID string            `json:"loanGuid"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// LoanNumberContract returns a pipeline query matching one loan number exactly.
func LoanNumberContract(loanNumber string) *PipelineContract {
	return &PipelineContract{
		Filter: And(Term(canonicalNameLoanNumber, MatchExact, loanNumber)),
	}
}

// BatchLoanUpdateContract applies LoanData to every loan selected by
// LoanGUIDs or Filter.
type BatchLoanUpdateContract struct {
	Filter    *Filter     `json:"filter,omitempty"`
	LoanGUIDs []string    `json:"loanGuids,omitempty"`
	LoanData  interface{} `json:"loanData"`
}

// BatchUpdateStatus is the state of a batch update request.
type BatchUpdateStatus struct {
	Status       string `json:"status"`
	LastModified string `json:"lastModified"`
}

// BatchStatusFunc fetches the status of a batch update request.
type BatchStatusFunc func(ctx context.Context, requestID string) (*BatchUpdateStatus, error)

// BatchUpdate is a handle on a submitted batch update.
type BatchUpdate struct {
	requestID string
	status    BatchStatusFunc
}

// NewBatchUpdate creates a handle for the request identified by requestID.
func NewBatchUpdate(requestID string, status BatchStatusFunc) *BatchUpdate {
	return &BatchUpdate{requestID: requestID, status: status}
}

// RequestID returns the identifier taken from the Location header.
func (b *BatchUpdate) RequestID() string {
	return b.requestID
}

// Status fetches the latest status of the batch update.
func (b *BatchUpdate) Status(ctx context.Context) (*BatchUpdateStatus, error) {
	return b.status(ctx, b.requestID)
}

// RequestIDFromLocation returns the trailing path segment of a Location header.
func RequestIDFromLocation(location string) (string, error) {
	location = strings.TrimRight(strings.TrimSpace(location), "/")
	if location == "" {
		return "", ErrMissingLocation
	}

	idx := strings.LastIndex(location, "/")

	id := location[idx+1:]
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingLocation, location)
	}

	return id, nil
}

// LoanAssociate is a user or group assigned to a milestone.
type LoanAssociate struct {
	LoanAssociateType string `json:"loanAssociateType"`
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	Phone             string `json:"phone,omitempty"`
	CellPhone         string `json:"cellPhone,omitempty"`
	Fax               string `json:"fax,omitempty"`
	Email             string `json:"email,omitempty"`
	RoleID            string `json:"roleId,omitempty"`
	RoleName          string `json:"roleName,omitempty"`
}

// Milestone is a stage of a loan's workflow.
type Milestone struct {
	ID                    string         `json:"id"`
	MilestoneName         string         `json:"milestoneName"`
	StartDate             string         `json:"startDate,omitempty"`
	ExpectedDays          int            `json:"expectedDays,omitempty"`
	DoneIndicator         bool           `json:"doneIndicator"`
	ReviewedIndicator     bool           `json:"reviewedIndicator,omitempty"`
	Comments              string         `json:"comments,omitempty"`
	LoanAssociate         *LoanAssociate `json:"loanAssociate,omitempty"`
	MilestoneIDString     string         `json:"milestoneIdString,omitempty"`
	AddedToStartDateOrder int            `json:"addedToStartDateOrder,omitempty"`
}

// FindMilestone returns the milestone named name, or nil.
func FindMilestone(milestones []Milestone, name string) *Milestone {
	for i := range milestones {
		if milestones[i].MilestoneName == name {
			return &milestones[i]
		}
	}

	return nil
}

// LoanAssociateAssignment is the body of a milestone associate assignment.
type LoanAssociateAssignment struct {
	LoanAssociateType string `json:"loanAssociateType"`
	ID                string `json:"id"`
}

// NewUserAssignment assigns the user identified by userID.
func NewUserAssignment(userID string) *LoanAssociateAssignment {
	return &LoanAssociateAssignment{LoanAssociateType: defaultLoanAssociateType, ID: userID}
}

// Organization is the organization a user belongs to.
type Organization struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
	EntityName string `json:"entityName"`
	EntityURI  string `json:"entityUri"`
}

// Persona is a role granted to a user.
type Persona struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType,omitempty"`
	EntityName string `json:"entityName"`
}

// UserProfile is a company user.
type UserProfile struct {
	ID                    string        `json:"id"`
	LastName              string        `json:"lastName"`
	FirstName             string        `json:"firstName"`
	FullName              string        `json:"fullName"`
	Email                 string        `json:"email"`
	Phone                 string        `json:"phone,omitempty"`
	UserIndicators        []string      `json:"userIndicators,omitempty"`
	PeerLoanAccess        string        `json:"peerLoanAccess,omitempty"`
	LastLogin             string        `json:"lastLogin,omitempty"`
	EncompassVersion      string        `json:"encompassVersion,omitempty"`
	PersonalStatusOnline  bool          `json:"personalStatusOnline"`
	Personas              []Persona     `json:"personas,omitempty"`
	WorkingFolder         string        `json:"workingFolder,omitempty"`
	Organization          *Organization `json:"organization,omitempty"`
	SubordinateLoanAccess string        `json:"subordinateLoanAccess,omitempty"`
	Comments              string        `json:"comments,omitempty"`
}

// LicenseInformation is a user's state license.
type LicenseInformation struct {
	State          string `json:"state"`
	Enabled        bool   `json:"enabled"`
	License        string `json:"license,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`
	IssueDate      string `json:"issueDate,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
}

// FieldReaderResult is a single value returned by the field reader.
type FieldReaderResult struct {
	FieldID  string `json:"fieldId"`
	Value    string `json:"value"`
	Format   string `json:"format,omitempty"`
	ReadOnly bool   `json:"readonly,omitempty"`
}

// CustomField is a custom field in a loan contract.
type CustomField struct {
	FieldName    string   `json:"fieldName"`
	StringValue  string   `json:"stringValue"`
	NumericValue *float64 `json:"numericValue,omitempty"`
}

// GeneratedContractUpdate holds field ID to value pairs used to build an
// update contract. StandardFields go through the contract generator;
// CustomFields are sent as CustomField entries.
type GeneratedContractUpdate struct {
	StandardFields map[string]interface{} `json:"standardFields,omitempty"`
	CustomFields   map[string]interface{} `json:"customFields,omitempty"`
}
