package openedx

import (
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

// NewOLL builds the Open Learning Library client. The OLL instance serves only
// MIT content, so no owner filter or topic remap is needed.
func NewOLL(log *logger.Logger) *Client {
	cfg := Config{
		PlatformName: types.PlatformOLL,
		OfferedBy:    "OCW",
		ClientID:     envutil.Str("OLL_API_CLIENT_ID", ""),
		ClientSecret: envutil.Str("OLL_API_CLIENT_SECRET", ""),
		TokenURL:     envutil.Str("OLL_API_ACCESS_TOKEN_URL", ""),
		APIURL:       envutil.Str("OLL_API_URL", ""),
		BaseURL:      envutil.Str("OLL_BASE_URL", "https://openlearninglibrary.mit.edu"),
	}
	return NewClient(cfg, log)
}
