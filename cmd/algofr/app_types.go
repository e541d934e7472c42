package main

import (
	"github.com/gosuda/algofr/config"
	aruntime "github.com/gosuda/algofr/runtime"
)

type appConfig struct {
	path    string
	source  string
	run     *config.Config
	color   bool
	history string
}

type sessionStartedMsg struct {
	program string
	session *aruntime.Session
}

type sessionEventMsg struct {
	ev aruntime.Event
}

type sessionClosedMsg struct{}

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingInput
	pendingStep
)

type pending struct {
	kind pendingKind
	name string
	line int
}
