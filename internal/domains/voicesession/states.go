package voicesession

import "github.com/looplab/fsm"

// SessionState is one phase of a voice session's life.
type SessionState string

const (
	StateCreated            SessionState = "created"
	StateConnectingUpstream SessionState = "connecting_upstream" // dialing the provider
	StateActive             SessionState = "active"              // relaying audio both ways
	StateTerminating        SessionState = "terminating"         // draining queued audio
	StateClosed             SessionState = "closed"              // terminal
)

// SessionEvent labels the transitions between phases.
type SessionEvent string

const (
	EventConnect   SessionEvent = "connect"
	EventActivate  SessionEvent = "activate"
	EventTerminate SessionEvent = "terminate"
	EventClose     SessionEvent = "close"
)

// A session only ever moves forward:
//
//	created -> connecting_upstream -> active -> terminating -> closed
//
// terminate is valid from every non-terminal phase, close from every phase,
// so a failed connect or an early stop still lands in closed.
func newStateMachine() *fsm.FSM {
	return fsm.NewFSM(
		string(StateCreated),
		fsm.Events{
			{
				Name: string(EventConnect),
				Src:  []string{string(StateCreated)},
				Dst:  string(StateConnectingUpstream),
			},
			{
				Name: string(EventActivate),
				Src:  []string{string(StateConnectingUpstream)},
				Dst:  string(StateActive),
			},
			{
				Name: string(EventTerminate),
				Src: []string{
					string(StateCreated),
					string(StateConnectingUpstream),
					string(StateActive),
				},
				Dst: string(StateTerminating),
			},
			{
				Name: string(EventClose),
				Src: []string{
					string(StateCreated),
					string(StateConnectingUpstream),
					string(StateActive),
					string(StateTerminating),
				},
				Dst: string(StateClosed),
			},
		},
		fsm.Callbacks{},
	)
}
