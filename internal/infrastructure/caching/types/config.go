// Package types defines configuration cache data structures
package types

// RestaurantConfig holds tenant-specific storefront configuration, loaded
// from the tenant's restaurant.json and served to the dashboard shell.
type RestaurantConfig struct {
	SiteInit    bool   `json:"SITE_INIT"`
	Name        string `json:"NAME"`
	Slogan      string `json:"SLOGAN"`
	Currency    string `json:"CURRENCY"`
	Timezone    string `json:"TIMEZONE"`
	SiteURL     string `json:"SITE_URL"`
	LogoURL     string `json:"LOGO_URL"`
	OrderPrefix string `json:"ORDER_PREFIX"`
	OpenDemo    bool   `json:"OPEN_DEMO"`
}
