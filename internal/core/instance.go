package core

import "github.com/fwojciec/dsemu/internal/emulator"

// activeInstance is the tagged variant behind the controller's Running
// state. Exactly two shapes exist: an instance adopted from the environment
// (external) and an instance this controller spawned (owned). Making the
// distinction a type rather than a nullable process handle turns the
// ownership rules (shutdown and terminate apply to owned instances only)
// into a type switch.
//
// Both shapes carry host and projectID together, so the two can never be
// partially configured.
type activeInstance interface {
	hostProject() (host, projectID string)
}

// externalInstance is a running emulator the controller discovered through
// environment variables and adopted. The controller never shuts it down.
type externalInstance struct {
	host      string
	projectID string
}

func (e *externalInstance) hostProject() (string, string) {
	return e.host, e.projectID
}

// ownedInstance is an emulator this controller spawned. Teardown is the
// controller's responsibility: shutdown request, environment unbind, and
// process termination.
type ownedInstance struct {
	host      string
	projectID string
	proc      *emulator.Process
}

func (o *ownedInstance) hostProject() (string, string) {
	return o.host, o.projectID
}
