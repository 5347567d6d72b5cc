package bridge

import (
	"regexp"
	"strconv"
	"strings"
)

// Device output line prefixes.
const (
	okPrefix    = "ok"
	errorPrefix = "Error:"
	killPrefix  = "!!"
)

// tempPattern matches Marlin-style temperature fields: "T:210.4 /215.0",
// "B:60.1 /60.0". The target is optional.
var tempPattern = regexp.MustCompile(`(T|B):(-?\d+(?:\.\d+)?)(?:\s*/(-?\d+(?:\.\d+)?))?`)

// TemperatureReport holds parsed hotend/bed temperatures from a device
// output line. Targets are zero when the device omits them.
type TemperatureReport struct {
	Hotend       float64
	HotendTarget float64
	Bed          float64
	BedTarget    float64
}

// ParseTemperatures extracts a temperature report from a device output
// line. ok is false when the line carries no temperature fields.
func ParseTemperatures(line string) (report TemperatureReport, ok bool) {
	matches := tempPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return TemperatureReport{}, false
	}

	for _, m := range matches {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		var target float64
		if m[3] != "" {
			target, _ = strconv.ParseFloat(m[3], 64) //nolint:errcheck // pattern guarantees a float
		}

		switch m[1] {
		case "T":
			report.Hotend = value
			report.HotendTarget = target
		case "B":
			report.Bed = value
			report.BedTarget = target
		}
		ok = true
	}
	return report, ok
}

// IsAcknowledgement reports whether the line is a plain command
// acknowledgement (possibly carrying temperature fields).
func IsAcknowledgement(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == okPrefix || strings.HasPrefix(trimmed, okPrefix+" ")
}

// IsFatalError reports whether the line signals a firmware fault that
// ends the session ("Error:..." or a killed-printer "!!" report).
func IsFatalError(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, errorPrefix) || strings.HasPrefix(trimmed, killPrefix)
}
