package caersparser

import (
	"math"
	"strconv"
	"strings"

	"github.com/giygas/caers-api/caersparser/entities"
)

// missingMarkers are the cell values treated as "no value" for numeric columns.
var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"-nan": {},
	"null": {},
	"none": {},
	"<na>": {},
	"#n/a": {},
}

// ParseAge parses a PATIENT_AGE cell. Missing markers give an invalid Age
// and no error; anything else that is not a finite number gives an invalid
// Age and an *UnparseableAgeError.
func ParseAge(raw string) (entities.Age, error) {
	s := strings.TrimSpace(raw)
	if _, missing := missingMarkers[strings.ToLower(s)]; missing {
		return entities.Age{}, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return entities.Age{}, &UnparseableAgeError{Value: raw}
	}

	return entities.Age{Years: v, Valid: true}, nil
}

// NormalizeAge converts an age to years according to its AGE_UNITS tag.
// Decades are multiplied by 10. Weeks, days and months are zeroed rather than
// converted, so those patients land in the infants bracket. Years and an empty
// unit leave the value alone; any other unit also leaves it alone but returns
// an *UnknownUnitError. Missing ages stay missing.
func NormalizeAge(age entities.Age, unit string) (entities.Age, error) {
	if !age.Valid {
		return age, nil
	}

	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "decade(s)":
		age.Years *= 10
	case "week(s)", "day(s)", "month(s)":
		age.Years *= 0
	case "year(s)", "":
	default:
		return age, &UnknownUnitError{Unit: unit}
	}

	return age, nil
}

// Bracket maps a normalized age to its age group. The branches are ordered:
// four numeric thresholds, then the missing check, then the infants fallback.
func Bracket(age entities.Age) entities.AgeBracket {
	switch {
	case age.Valid && age.Years >= 65:
		return entities.BracketSenior
	case age.Valid && age.Years >= 36:
		return entities.BracketMiddleAge
	case age.Valid && age.Years >= 18:
		return entities.BracketAdults
	case age.Valid && age.Years >= 13:
		return entities.BracketTeens
	case age.Valid && age.Years >= 4:
		return entities.BracketKids
	case !age.Valid:
		return entities.BracketNotAvailable
	default:
		return entities.BracketInfants
	}
}
