package types

// Channel names a release variant of the document schema, independent of
// the schema version. Stable and beta are the channels coffer ships;
// the type is a plain string so deployments can introduce additional
// channels without touching the engine.
type Channel string

// Built-in channels.
const (
	ChannelStable Channel = "stable"
	ChannelBeta   Channel = "beta"
)

// ParseChannel interprets a raw channel string from a document or
// configuration. An empty string means the document predates channel
// tagging and is treated as stable.
func ParseChannel(s string) Channel {
	if s == "" {
		return ChannelStable
	}
	return Channel(s)
}

// Valid reports whether the channel carries a usable name.
func (c Channel) Valid() bool {
	return c != ""
}

// IsBeta reports whether the channel is the beta channel.
func (c Channel) IsBeta() bool {
	return c == ChannelBeta
}

// String returns the channel name.
func (c Channel) String() string {
	return string(c)
}
