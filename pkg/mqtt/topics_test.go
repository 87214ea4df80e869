package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"learn request", LearnRequestTopic("98F33012"), "lookin/learn/request/98F33012"},
		{"learn result", LearnResultTopic("98F33012"), "lookin/learn/result/98F33012"},
		{"climate", ClimateTopic("98F33012"), "lookin/climate/98F33012"},
		{"status", StatusTopic("learning-agent"), "lookin/status/learning-agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDeviceFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"lookin/learn/request/98F33012", "98F33012"},
		{"lookin/climate/98F33012", "98F33012"},
		{"lookin/learn/request/", ""},
		{"lookin", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DeviceFromTopic(tt.topic); got != tt.want {
			t.Errorf("DeviceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}
