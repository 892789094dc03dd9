/*
Package ports defines the driven ports (interfaces) of the switchboard router.

These interfaces decouple the dialog state machine from external
implementations, so the same router runs against any reasoning engine, session
store, or descriptor source.

# Key Interfaces

  - Reasoner: the language-model call that turns a conversation into a reply or action requests.
  - StateStore: persists and loads Session snapshots.
  - DistributedLocker: serializes turns of one session across replicas.
  - DescriptorSource: supplies controller descriptors (built-in catalog, Markdown files).
  - TurnEngine: the Turn API consumed by the HTTP, MCP and chat adapters.
*/
package ports
