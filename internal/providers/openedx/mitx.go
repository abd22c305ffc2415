package openedx

import (
	"strings"

	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

// NewMITx builds the MITx client. The topic crosswalk is required because the
// upstream edX subjects do not match our canonical topic taxonomy; a nil map
// drops every topic.
func NewMITx(log *logger.Logger, crosswalk *TopicMap) *Client {
	cfg := Config{
		PlatformName: types.PlatformMITx,
		OfferedBy:    "MITx",
		ClientID:     envutil.Str("EDX_API_CLIENT_ID", ""),
		ClientSecret: envutil.Str("EDX_API_CLIENT_SECRET", ""),
		TokenURL:     envutil.Str("EDX_API_ACCESS_TOKEN_URL", "https://api.edx.org/oauth2/v1/access_token"),
		APIURL:       envutil.Str("EDX_API_URL", "https://api.edx.org/catalog/v1/catalogs/10/courses"),
		BaseURL:      envutil.Str("EDX_BASE_URL", "https://www.edx.org"),
		AltBaseURL:   envutil.Str("EDX_ALT_URL", "https://courses.edx.org"),
		CourseFilter: mitOwned,
		TopicRemap:   crosswalk.Lookup,
	}
	return NewClient(cfg, log)
}

// mitOwned keeps only courses owned by an MIT organization; the edX catalog
// feed is not pre-filtered.
func mitOwned(raw RawCourse) bool {
	for _, owner := range raw.Owners {
		key := strings.ToLower(strings.TrimSpace(owner.Key))
		if key == "mitx" || key == "mit" {
			return true
		}
	}
	return false
}
