// SPDX-License-Identifier: Apache-2.0

package connstr

import (
	"strconv"
	"strings"

	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
)

// SparkConnect is a parsed `sc://host:port/;key=value;...` connection
// string per SPEC_FULL.md §6.2. Header keys are lowercased as they are
// parsed; Spark Connect treats header keys case-insensitively on the wire.
type SparkConnect struct {
	HostPort string
	UseSSL   bool
	Token    string
	Headers  map[string]string
}

// ParseSparkConnect parses a Spark Connect connection string and enforces
// the InsecureToken rule: a token without use_ssl=true is refused.
func ParseSparkConnect(connString string) (SparkConnect, error) {
	rest, ok := strings.CutPrefix(connString, "sc://")
	if !ok {
		return SparkConnect{}, swerrs.ArgumentError{Reason: "spark connect string must start with sc://"}
	}

	hostPort, paramStr, _ := strings.Cut(rest, "/;")
	if paramStr == "" {
		// No trailing parameters; hostPort may itself retain a dangling "/".
		hostPort = strings.TrimSuffix(hostPort, "/")
	}

	sc := SparkConnect{HostPort: hostPort, Headers: make(map[string]string)}

	for _, part := range strings.Split(paramStr, ";") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		key = strings.ToLower(key)

		switch key {
		case "use_ssl":
			sc.UseSSL, _ = strconv.ParseBool(value)
		case "token":
			sc.Token = value
		default:
			sc.Headers[key] = value
		}
	}

	if sc.Token != "" && !sc.UseSSL {
		return SparkConnect{}, swerrs.InsecureTokenError{}
	}

	return sc, nil
}
