package entities

import "strings"

// ProductRole tells whether a product is the suspected cause of an event
// or something the patient was also taking.
type ProductRole string

const (
	RoleSuspect     ProductRole = "suspect"
	RoleConcomitant ProductRole = "concomitant"
	RoleOther       ProductRole = "other"
)

// ParseRole maps the raw PRODUCT_TYPE column to a ProductRole.
func ParseRole(raw string) ProductRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "suspect":
		return RoleSuspect
	case "concomitant":
		return RoleConcomitant
	default:
		return RoleOther
	}
}

// Severity is the ordinal outcome score, 1 (least) to 5 (death).
type Severity int

const (
	SeverityOther           Severity = 1
	SeverityEmergencyRoom   Severity = 2
	SeveritySerious         Severity = 3
	SeverityLifeThreatening Severity = 4
	SeverityDeath           Severity = 5
)

// AgeBracket is the categorical patient age group.
type AgeBracket string

const (
	BracketSenior       AgeBracket = "senior"
	BracketMiddleAge    AgeBracket = "middle age"
	BracketAdults       AgeBracket = "adults"
	BracketTeens        AgeBracket = "teens"
	BracketKids         AgeBracket = "kids"
	BracketInfants      AgeBracket = "infants"
	BracketNotAvailable AgeBracket = "age not available"
)

// AgeBrackets lists every bracket from oldest to youngest, missing last.
var AgeBrackets = []AgeBracket{
	BracketSenior,
	BracketMiddleAge,
	BracketAdults,
	BracketTeens,
	BracketKids,
	BracketInfants,
	BracketNotAvailable,
}

// ParseAgeBracket returns the bracket named by s, if any.
func ParseAgeBracket(s string) (AgeBracket, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, b := range AgeBrackets {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

// Age is a patient age in years. Valid is false when the source value was
// missing or could not be parsed.
type Age struct {
	Years float64 `json:"years"`
	Valid bool    `json:"valid"`
}

// Record is one adverse-event report line, plus the columns derived from it.
type Record struct {
	ReportID     string      `json:"reportId"`
	Product      string      `json:"product"`
	ProductCode  string      `json:"productCode,omitempty"`
	Description  string      `json:"description,omitempty"`
	Role         ProductRole `json:"role"`
	Outcome      string      `json:"outcome"`
	Symptoms     string      `json:"symptoms,omitempty"`
	Sex          string      `json:"sex,omitempty"`
	DateReceived string      `json:"dateReceived,omitempty"`
	DateEvent    string      `json:"dateEvent,omitempty"`
	RawAge       string      `json:"-"`
	AgeUnit      string      `json:"ageUnit,omitempty"`
	Age          Age         `json:"age"`
	Severity     Severity    `json:"severity"`
	Bracket      AgeBracket  `json:"ageGroup"`

	// Set by the concomitant join. HasConcomitants is false when no
	// concomitant record shares the report id.
	Concomitants    string `json:"concomitants,omitempty"`
	HasConcomitants bool   `json:"-"`

	// Broadcast from the product aggregate.
	Occurrences  int     `json:"occurrences"`
	MeanSeverity float64 `json:"meanSeverity"`
}
