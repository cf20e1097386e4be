package core

import (
	"fmt"
	"regexp"
)

var topicRegex = regexp.MustCompile(`^[a-z]+-(pressed|opened)$`)

// Topic partitions the event bus. It has the shape <kind>-pressed.
type Topic string

const (
	TopicDoorPressed   Topic = "door-pressed"
	TopicDashPressed   Topic = "dash-pressed"
	TopicRecordPressed Topic = "record-pressed"
	TopicDoorOpened    Topic = "door-opened"
)

func NewTopic(value string) (Topic, error) {
	if value == "" {
		return "", fmt.Errorf("topic: %s cannot be empty", value)
	}

	if !topicRegex.MatchString(value) {
		return "", fmt.Errorf("topic: %s format is invalid", value)
	}

	return Topic(value), nil
}

func (t Topic) String() string {
	return string(t)
}
