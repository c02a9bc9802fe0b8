// Package logs provides CloudFormation resource types for Amazon CloudWatch Logs.
package logs

// LogGroup represents AWS::Logs::LogGroup.
type LogGroup struct {
	LogGroupName    any `json:"LogGroupName,omitempty"`
	RetentionInDays int `json:"RetentionInDays,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r LogGroup) ResourceType() string { return "AWS::Logs::LogGroup" }

// ValidRetentionDays lists the retention periods CloudWatch Logs accepts.
var ValidRetentionDays = []int{
	1, 3, 5, 7, 14, 30, 60, 90, 120, 150, 180, 365, 400, 545,
	731, 1096, 1827, 2192, 2557, 2922, 3288, 3653,
}

// IsValidRetention reports whether days is an accepted retention period.
func IsValidRetention(days int) bool {
	for _, d := range ValidRetentionDays {
		if d == days {
			return true
		}
	}
	return false
}
