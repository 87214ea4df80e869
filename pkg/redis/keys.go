package redis

import "fmt"

// Key construction helpers for hub data

// LearnedCommandKey returns the key for a cached learned command (string)
// Pattern: command:{device_id}:{remote_uuid}:{function}
func LearnedCommandKey(deviceID, remoteUUID, function string) string {
	return fmt.Sprintf("command:%s:%s:%s", deviceID, remoteUUID, function)
}

// LearnedCommandPattern returns the match pattern for all cached
// commands of one remote
func LearnedCommandPattern(deviceID, remoteUUID string) string {
	return fmt.Sprintf("command:%s:%s:*", deviceID, remoteUUID)
}

// SessionMetaKey returns the key for learning session metadata (hash)
// Pattern: session:{session_id}
func SessionMetaKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// ClimateHistoryKey returns the key for climate readings (sorted set,
// scored by unix timestamp)
// Pattern: climate:{device_id}
func ClimateHistoryKey(deviceID string) string {
	return fmt.Sprintf("climate:%s", deviceID)
}

// ClimateMetaKey returns the key for climate sensor metadata (hash)
// Pattern: meta:climate:{device_id}
func ClimateMetaKey(deviceID string) string {
	return fmt.Sprintf("meta:climate:%s", deviceID)
}
