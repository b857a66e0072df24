package metadata

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var regionNamer = display.English.Regions()

// CountryName returns the English name for an ISO 3166-1 alpha-2 code, or ""
// when the code is not a known region.
func CountryName(code string) string {
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return ""
	}
	return regionNamer.Name(region)
}
