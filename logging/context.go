package logging

import (
	"context"

	"go.viam.com/utils"
)

// debugTagField is the field added to entries emitted only because of WithDebug.
const debugTagField = "debug_tag"

type debugTagKey struct{}

// WithDebug returns a context under which CDebugf and CDebugw log even when the logger is above
// debug level. Such entries carry tag so one operation can be followed through the output. An
// empty tag is replaced by a random one.
func WithDebug(ctx context.Context, tag string) context.Context {
	if tag == "" {
		tag = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugTagKey{}, tag)
}

// DebugTag returns the tag set by WithDebug, or "" when ctx does not ask for debug output.
func DebugTag(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tag, _ := ctx.Value(debugTagKey{}).(string)
	return tag
}
