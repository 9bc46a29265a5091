package enums

// ThresholdLevel classifies a stock level against the item thresholds.
type ThresholdLevel string

const (
	ThresholdLevelOK        ThresholdLevel = "ok"
	ThresholdLevelLow       ThresholdLevel = "low"
	ThresholdLevelCritical  ThresholdLevel = "critical"
	ThresholdLevelOverstock ThresholdLevel = "overstock"
)

// String implements fmt.Stringer.
func (t ThresholdLevel) String() string {
	return string(t)
}
