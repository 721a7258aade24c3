package parsers

import (
	"encoding/json"

	"TrailZero/core"
)

// ExtractFields pulls the recognized CloudTrail keys out of one decoded event.
// Missing or mistyped values degrade to nil; nothing here fails.
func ExtractFields(event map[string]interface{}) core.Fields {
	fields := core.Fields{
		Name:      getOptionalString(event, "eventName"),
		Type:      getOptionalString(event, "eventType"),
		EventTime: getEventTime(event),
		SourceIP:  getOptionalString(event, "sourceIPAddress"),
		Region:    getOptionalString(event, "awsRegion"),
		UserAgent: getOptionalString(event, "userAgent"),

		RequestParameters:   event["requestParameters"],
		AdditionalEventData: event["additionalEventData"],
	}

	// userIdentity that is absent or not an object leaves all three nil
	if identity, ok := event["userIdentity"].(map[string]interface{}); ok {
		fields.UserName = getOptionalString(identity, "userName")
		fields.ARN = getOptionalString(identity, "arn")
		fields.AccountID = getOptionalString(identity, "accountId")
	}

	return fields
}

// getEventTime resolves eventTime. A value of the wrong JSON type is kept as
// its JSON text so that normalization reports it instead of defaulting.
func getEventTime(event map[string]interface{}) string {
	raw, ok := event["eventTime"]
	if !ok || raw == nil {
		return DefaultEventTime
	}

	if s, ok := raw.(string); ok {
		return s
	}

	text, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(text)
}

// getOptionalString returns the string stored under key, or nil
func getOptionalString(m map[string]interface{}, key string) *string {
	if val, ok := m[key].(string); ok {
		return &val
	}
	return nil
}
