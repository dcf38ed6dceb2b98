package engine

import (
	"regexp"
	"strings"
)

// Predicate classifies an element name.
type Predicate func(name string) bool

var numberWords = strings.Fields(`one two three four five six seven eight nine ten
eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen
twenty thirty forty fifty sixty seventy eighty ninety hundred thousand
million`)

var numberWordPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(numberWords, "|") + `)\b`)

// ContainsDigit reports whether name contains an ASCII digit. It is the
// default stop condition for doubling chains.
func ContainsDigit(name string) bool {
	return strings.ContainsAny(name, "0123456789")
}

// LooksNumeric reports whether name contains a digit or at least two whole
// number words ("Two Hundred", "one ONE"). It is the default disqualifying
// predicate for addition chains and random sampling.
func LooksNumeric(name string) bool {
	if ContainsDigit(name) {
		return true
	}
	return len(numberWordPattern.FindAllStringIndex(name, 2)) >= 2
}

// Never is a predicate that matches nothing.
func Never(string) bool {
	return false
}

// Predicate names accepted by LookupPredicate.
const (
	PredicateDigit   = "digit"
	PredicateNumeric = "numeric"
	PredicateNever   = "never"
)

// LookupPredicate returns the predicate registered under name.
func LookupPredicate(name string) (Predicate, bool) {
	switch name {
	case PredicateDigit:
		return ContainsDigit, true
	case PredicateNumeric:
		return LooksNumeric, true
	case PredicateNever:
		return Never, true
	}
	return nil, false
}
