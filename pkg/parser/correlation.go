package parser

import "regexp"

var (
	apigwTag   = regexp.MustCompile(`\["APIGW:([^:]+):([^\]]+)"\]`)
	apigwStrip = regexp.MustCompile(`\["APIGW:[^"]+"\],?\s*`)
	emptyTag   = regexp.MustCompile(`\[""\]`)
	emptyStrip = regexp.MustCompile(`\[""\],?\s*`)
	guidPrefix = regexp.MustCompile(`(?i)^([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})\s+-\s+(.*)$`)
)

// Correlation is the result of extracting identifiers from a header message.
type Correlation struct {
	Kind          CorrelationKind
	CorrelationID string
	RequestID     string

	// Message is the header message with the correlation encoding removed.
	Message string
}

// ExtractCorrelation finds correlation and request ids in a header message.
// Encodings are tried in order and the first match wins:
//
//	["APIGW:<correlation>:<request>"]  both ids, tag removed
//	[""]                               anonymous, tag removed
//	<guid> - rest                      guid is the correlation id
func ExtractCorrelation(message string) Correlation {
	if m := apigwTag.FindStringSubmatch(message); m != nil {
		return Correlation{
			Kind:          CorrelationAPIGW,
			CorrelationID: m[1],
			RequestID:     m[2],
			Message:       removeFirst(apigwStrip, message),
		}
	}

	if emptyTag.MatchString(message) {
		return Correlation{
			Kind:    CorrelationAnonymous,
			Message: removeFirst(emptyStrip, message),
		}
	}

	if m := guidPrefix.FindStringSubmatch(message); m != nil {
		return Correlation{
			Kind:          CorrelationGUID,
			CorrelationID: m[1],
			Message:       m[2],
		}
	}

	return Correlation{Kind: CorrelationNone, Message: message}
}

// removeFirst deletes the leftmost match of re from s.
func removeFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
