// Package parsers validates model classifier output. The generation service
// is an untrusted classifier: anything outside the expected closed set maps
// to the defined fallback, never to undefined behavior.
package parsers

import (
	"strings"

	"github.com/reviewchat-core/server/internal/agent/model"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// maxLabelLen guards against a model answering with prose instead of a label.
const maxLabelLen = 64

// RouteLabel normalizes raw router output into one of the three route labels.
// Invalid, empty, or oversized output falls back to chat; routing is never a
// fatal error.
func RouteLabel(content string) model.RouteLabel {
	label := normalize(content)
	if len(label) > maxLabelLen {
		logx.Warn().Str("snippet", safeSnippet(label)).Msg("router output too long; defaulting to chat")
		return model.RouteChat
	}
	switch model.RouteLabel(label) {
	case model.RouteChat, model.RouteMetadata, model.RouteRetrieval:
		return model.RouteLabel(label)
	default:
		logx.Debug().Str("label", safeSnippet(label)).Msg("unrecognized route label; defaulting to chat")
		return model.RouteChat
	}
}

// CatalogKey normalizes raw key-selection output. It returns "" when the
// model declined with "none" or produced something that cannot be a key;
// callers still validate the key against the catalog before trusting it.
func CatalogKey(content string) string {
	key := normalize(content)
	if key == "" || key == "none" || len(key) > maxLabelLen {
		return ""
	}
	// Keys never contain whitespace; prose means the model ignored the format.
	if strings.ContainsAny(key, " \t\n") {
		logx.Debug().Str("snippet", safeSnippet(key)).Msg("catalog key output is prose; treating as no-match")
		return ""
	}
	return key
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(s, "\"'`.,:;!")
}

const maxErrSnippet = 80

func safeSnippet(s string) string {
	if len(s) > maxErrSnippet {
		return s[:maxErrSnippet] + "..."
	}
	return s
}
