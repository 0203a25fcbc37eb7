package backup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cofferapp/coffer/pkg/types"
)

// Backup filenames follow a fixed grammar so that listing a directory
// recovers every attribute without opening a single file:
//
//	state.<timestamp>.<channel>.<version>.<reason>.json
//
// The timestamp is dot-free (20060102_150405, with an optional _N
// collision suffix), so the only dotted field is the version. Parsing
// therefore anchors on the fixed head (prefix, timestamp, channel) and
// tail (reason, extension) and rejoins whatever lies between as the
// version.
const (
	namePrefix = "state"
	nameExt    = "json"
	tsLayout   = "20060102_150405"
)

// buildName renders a backup filename. seq disambiguates same-second
// collisions; zero means no suffix.
func buildName(ts time.Time, seq int, channel types.Channel, version, reason string) string {
	stamp := ts.Format(tsLayout)
	if seq > 0 {
		stamp = fmt.Sprintf("%s_%d", stamp, seq)
	}
	return strings.Join([]string{namePrefix, stamp, channel.String(), version, reason, nameExt}, ".")
}

// parseName recovers a BackupInfo from a filename. The boolean reports
// whether the name matches the grammar; callers skip non-matching
// entries rather than failing a listing.
func parseName(name string) (types.BackupInfo, bool) {
	var info types.BackupInfo

	fields := strings.Split(name, ".")
	if len(fields) < 6 {
		return info, false
	}
	if fields[0] != namePrefix || fields[len(fields)-1] != nameExt {
		return info, false
	}

	stamp := fields[1]
	channel := fields[2]
	reason := fields[len(fields)-2]
	version := strings.Join(fields[3:len(fields)-2], ".")
	if channel == "" || version == "" || reason == "" {
		return info, false
	}

	created, ok := parseStamp(stamp)
	if !ok {
		return info, false
	}

	info.Name = name
	info.CreatedAt = created
	info.Channel = types.Channel(channel)
	info.Version = version
	info.Reason = reason
	return info, true
}

// parseStamp parses the timestamp field, tolerating a numeric collision
// suffix.
func parseStamp(stamp string) (time.Time, bool) {
	parts := strings.Split(stamp, "_")
	if len(parts) != 2 && len(parts) != 3 {
		return time.Time{}, false
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return time.Time{}, false
		}
	}
	created, err := time.ParseInLocation(tsLayout, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return created, true
}

// sanitizeReason squeezes a free-form reason into the filename grammar:
// dots and other separators collapse to hyphens, and an empty result
// falls back to "manual".
func sanitizeReason(reason string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(reason)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "manual"
	}
	return out
}
