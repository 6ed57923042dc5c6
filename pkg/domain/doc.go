/*
Package domain contains the core domain models of the lendflow engine.

It defines the workflow states, the per-applicant Session, its typed Data record
and the TransitionResult through which the state machine changes a session.
This package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - State: one of the ten enumerated workflow steps (MASTER through END).
  - Session: state, conversation history, collected data and the pending message queue.
  - Data / Patch: typed optional fields and the field-by-field updates merged into them.
  - TransitionResult: messages to enqueue, the next state and the patch to merge.
  - SessionDiff: the delta between two session snapshots, streamed to rich clients.
*/
package domain
