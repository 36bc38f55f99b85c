package ga

import "fmt"

// Settings holds the destination configuration. Dimensions and Metrics map a
// semantic property name to the vendor field it was registered under
// (dimension<N> / metric<N>).
type Settings struct {
	ServersideTrackingID string `mapstructure:"serverside_tracking_id"`
	MobileTrackingID     string `mapstructure:"mobile_tracking_id"`
	SendUserID           bool   `mapstructure:"send_user_id"`
	NonInteraction       bool   `mapstructure:"non_interaction"`
	EnhancedEcommerce    bool   `mapstructure:"enhanced_ecommerce"`

	Dimensions map[string]string `mapstructure:"dimensions"`
	Metrics    map[string]string `mapstructure:"metrics"`
}

// Validate checks that at least one tracking id source is configured. The
// mapper itself tolerates a missing tracking id; delivery does not.
func (s Settings) Validate() error {
	if s.ServersideTrackingID == "" && s.MobileTrackingID == "" {
		return fmt.Errorf("ga: serverside_tracking_id or mobile_tracking_id is required")
	}
	return nil
}
