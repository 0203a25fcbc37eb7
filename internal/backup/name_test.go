package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cofferapp/coffer/pkg/types"
)

func TestBuildNameParseNameRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

	tests := []struct {
		name    string
		seq     int
		channel types.Channel
		version string
		reason  string
	}{
		{name: "plain version", channel: types.ChannelStable, version: "1.1", reason: "manual"},
		{name: "dotted version", channel: types.ChannelBeta, version: "1.2.0", reason: "pre-migration"},
		{name: "collision suffix", seq: 2, channel: types.ChannelStable, version: "1.0", reason: "pre-restore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fname := buildName(ts, tt.seq, tt.channel, tt.version, tt.reason)
			info, ok := parseName(fname)
			require.True(t, ok, "parseName rejected %q", fname)
			assert.Equal(t, tt.channel, info.Channel)
			assert.Equal(t, tt.version, info.Version)
			assert.Equal(t, tt.reason, info.Reason)
			assert.True(t, ts.Equal(info.CreatedAt), "timestamp %v != %v", info.CreatedAt, ts)
		})
	}
}

func TestParseNameRejectsMalformed(t *testing.T) {
	bad := []string{
		"state.json",
		"notes.txt",
		"state.20260314_092653.stable.json",
		"state.20260314.stable.1.1.manual.json",
		"state.20260314_092653_x.stable.1.1.manual.json",
		"backup.20260314_092653.stable.1.1.manual.json",
		"state.20260314_092653.stable.1.1.manual.txt",
		"state.20260314_092653..1.1.manual.json",
	}

	for _, name := range bad {
		_, ok := parseName(name)
		assert.False(t, ok, "parseName accepted %q", name)
	}
}

func TestParseNameDottedVersionSurvives(t *testing.T) {
	info, ok := parseName("state.20260314_092653.beta.1.2.0.pre-migration.json")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, types.ChannelBeta, info.Channel)
	assert.Equal(t, "pre-migration", info.Reason)
}

func TestSanitizeReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "pre-migration", want: "pre-migration"},
		{in: "Before Upgrade", want: "before-upgrade"},
		{in: "v1.2 rollout", want: "v1-2-rollout"},
		{in: "...", want: "manual"},
		{in: "", want: "manual"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeReason(tt.in), "input %q", tt.in)
	}
}
