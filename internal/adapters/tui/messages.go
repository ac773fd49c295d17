package tui

import "time"

type msgPlan struct {
	tasks  []string
	target string
}

type msgTaskStart struct {
	spanID    string
	name      string
	startTime time.Time
}

type msgTaskLog struct {
	spanID string
	data   []byte
}

type msgTaskComplete struct {
	spanID  string
	endTime time.Time
	err     error
}

type msgStop struct{}
