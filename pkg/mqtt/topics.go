package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout for the hub platform. Device IDs are the hub's reported
// ID, function slots are the remote UUID plus function name.
const (
	// Learning (input): a retained-free request to learn one command.
	// lookin/learn/request/{device_id}
	TopicLearnRequests = "lookin/learn/request/+"

	// Learning (output): session outcome, success or failure.
	// lookin/learn/result/{device_id}
	TopicLearnResults = "lookin/learn/result/+"

	// Climate readings published by the climate agent.
	// lookin/climate/{device_id}
	TopicClimate = "lookin/climate/+"

	// Retained agent availability, maintained by the MQTT client's
	// connect handler and last will.
	// lookin/status/{service_name}
	TopicStatus = "lookin/status/+"
)

// Payloads for the status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// LearnRequestTopic constructs the learn request topic for a device
func LearnRequestTopic(deviceID string) string {
	return fmt.Sprintf("lookin/learn/request/%s", deviceID)
}

// LearnResultTopic constructs the learn result topic for a device
func LearnResultTopic(deviceID string) string {
	return fmt.Sprintf("lookin/learn/result/%s", deviceID)
}

// ClimateTopic constructs the climate reading topic for a device
func ClimateTopic(deviceID string) string {
	return fmt.Sprintf("lookin/climate/%s", deviceID)
}

// StatusTopic constructs the availability topic for an agent
func StatusTopic(serviceName string) string {
	return fmt.Sprintf("lookin/status/%s", serviceName)
}

// DeviceFromTopic extracts the trailing device ID segment from any of
// the topics above. Returns the empty string for a bare topic root.
func DeviceFromTopic(topic string) string {
	i := strings.LastIndex(topic, "/")
	if i < 0 || i == len(topic)-1 {
		return ""
	}
	return topic[i+1:]
}
