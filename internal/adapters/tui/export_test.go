package tui

import "time"

// Message constructors for tests.

func PlanMsg(target string, tasks ...string) any {
	return msgPlan{tasks: tasks, target: target}
}

func StartMsg(spanID, name string, at time.Time) any {
	return msgTaskStart{spanID: spanID, name: name, startTime: at}
}

func LogMsg(spanID, data string) any {
	return msgTaskLog{spanID: spanID, data: []byte(data)}
}

func CompleteMsg(spanID string, at time.Time, err error) any {
	return msgTaskComplete{spanID: spanID, endTime: at, err: err}
}

func StopMsg() any {
	return msgStop{}
}
