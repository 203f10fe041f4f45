// Package recon runs webete's reconnaissance actions against a target.
package recon

import (
	"github.com/PentesterFlow/webete/internal/probe"
	"github.com/PentesterFlow/webete/internal/pyc"
	"github.com/PentesterFlow/webete/internal/store"
)

// Action selects what a run does.
type Action string

const (
	// ActionAuto fetches robots.txt.
	ActionAuto Action = "auto"
	// ActionPython guesses and decompiles a bytecode file.
	ActionPython Action = "python"
)

// Credentials are basic-auth credentials. An empty field counts as not
// supplied.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Finding is the journal record of one action.
type Finding = store.Finding

// AutoResult is the outcome of RunAuto.
type AutoResult struct {
	URL        string
	StatusCode int
	Body       []byte
	Robots     *RobotsSummary
}

// RobotsSummary is what was learned from a served robots.txt.
type RobotsSummary struct {
	InterestingPaths []string
	Sitemaps         []string
	CrawlDelay       int
}

// PythonResult is the outcome of RunPython. Found is false when no
// candidate was served; nothing is written in that case.
type PythonResult struct {
	Found      bool
	Normalized string
	Tried      int
	Hit        *probe.Hit
	Header     pyc.Header
	OutputPath string
}
