package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a selection value that matched a SQL
// injection fingerprint.
type InjectionCheckResult struct {
	IsSQLi      bool   // true if a SQL injection pattern was detected
	Fingerprint string // libinjection fingerprint of the pattern
	Field       string // field the value was destined for
	Value       any    // the value that was checked
}

// CheckValueForInjection screens a selection value with libinjection before
// it is embedded as a literal. Literal escaping already neutralizes the
// value; the screen exists so the shell can reject obviously hostile input
// at the API boundary instead of quietly filtering on it.
//
// Only string values are checked; numbers, booleans and temporals cannot
// carry injection patterns and return nil.
func CheckValueForInjection(field string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Field:       field,
		Value:       value,
	}
}

// CheckValuesForInjection screens a batch of selection values and returns
// one result per flagged value. A clean batch returns an empty slice.
func CheckValuesForInjection(field string, values []any) []*InjectionCheckResult {
	var flagged []*InjectionCheckResult
	for _, v := range values {
		if result := CheckValueForInjection(field, v); result != nil {
			flagged = append(flagged, result)
		}
	}
	return flagged
}
