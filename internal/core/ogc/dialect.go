// Package ogc turns WFS key-value requests into a Request descriptor and
// decides which protocol dialect a response is written in.
package ogc

import "strings"

// Dialect selects between the two WFS response shapes.
type Dialect int

const (
	// DialectV1 is WFS 1.0.0 with GML 2.
	DialectV1 Dialect = iota + 1
	// DialectV2 is WFS 2.0.0 with GML 3.2.
	DialectV2
)

// DialectFor resolves a client version string once per request: "2.x" is
// V2, an empty version takes def, anything else is V1.
func DialectFor(version string, def Dialect) Dialect {
	v := strings.TrimSpace(version)
	switch {
	case v == "":
		if def == DialectV2 {
			return DialectV2
		}
		return DialectV1
	case strings.HasPrefix(v, "2."):
		return DialectV2
	default:
		return DialectV1
	}
}

// Version is the protocol version the dialect advertises.
func (d Dialect) Version() string {
	if d == DialectV2 {
		return "2.0.0"
	}
	return "1.0.0"
}

func (d Dialect) String() string { return "WFS " + d.Version() }

// Operations the service answers, in the order capabilities list them.
const (
	OpGetCapabilities     = "GetCapabilities"
	OpDescribeFeatureType = "DescribeFeatureType"
	OpGetFeature          = "GetFeature"
)

var operations = []string{OpGetCapabilities, OpDescribeFeatureType, OpGetFeature}

func Operations() []string { return append([]string(nil), operations...) }

// CanonicalOperation matches name case-insensitively against the supported
// operations.
func CanonicalOperation(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, op := range operations {
		if strings.EqualFold(op, name) {
			return op, true
		}
	}
	return "", false
}
