// Package harness runs YAML scenarios against a fresh project store.
//
// A scenario is a list of steps (create, update, replace, delete,
// delete_frame) followed by assertions on the final state. Steps refer to
// projects by label rather than by identity: a create step names the
// project with "as", later steps and assertions use that name as
// "target" or "project".
//
// Every run uses a new database in a temporary directory and a
// deterministic clock, so identities and the recorded trace are stable
// and can be compared against golden files:
//
//	name: rename
//	description: Renaming keeps the frames
//	steps:
//	  - op: create
//	    as: wave
//	    project: {name: Wave, frames: [{servos: [1500]}]}
//	  - op: update
//	    target: wave
//	    project: {name: Wave v2, frames: [{servos: [1500]}]}
//	assertions:
//	  - type: project_name
//	    project: wave
//	    name: Wave v2
//
// Store errors are not fatal. A step may declare the error code it
// expects; an unexpected error (or a missing expected one) fails the
// scenario and execution continues with the next step.
package harness
