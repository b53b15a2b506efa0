package domain

import "strings"

// adKeywords are substrings that mark a lead origin as paid advertising.
// Matching is case-insensitive containment, not exact match: an origin like
// "Instagram Campaign - Dra. Paula" classifies as ad-sourced. The list carries
// both English and Portuguese terms since origins arrive as free text from
// several integrations.
var adKeywords = []string{
	"facebook",
	"instagram",
	"tiktok",
	"kwai",
	"youtube",
	"linkedin",
	"google ads",
	"adwords",
	"lead ads",
	"ads",
	"advert",
	"campaign",
	"campanha",
	"anúncio",
	"anuncio",
	"tráfego pago",
	"trafego pago",
	"patrocinado",
	"sponsored",
	"paid traffic",
}

// IsAdSourced reports whether a lead origin string describes a paid
// advertising channel. It is pure and total: nil/empty origins classify as
// false and no input can make it fail.
func IsAdSourced(origin *string) bool {
	if origin == nil {
		return false
	}

	normalized := strings.ToLower(strings.TrimSpace(*origin))
	if normalized == "" {
		return false
	}

	for _, keyword := range adKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
