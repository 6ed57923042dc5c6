/*
Package ports defines the driven ports (interfaces) for the lendflow engine.

These interfaces decouple the conversation core from external implementations,
allowing it to work with various storage backends, document generators and
phrasing services.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading applicant Sessions.
  - DistributedLocker: Provides distributed locking for concurrent access to a session.
  - ArtifactGenerator: Produces the sanction letter once a loan is approved.
  - Phraser: Optionally supplies a friendlier prompt for the next missing field.
  - Conversation: The turn protocol consumed by hosting adapters (HTTP, MCP, terminal).
*/
package ports
