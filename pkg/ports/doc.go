/*
Package ports defines the driven ports (interfaces) of the Polya engine.

They decouple session handling from concrete backends so the same manager
and transports work with memory, file, Redis or SQLite storage.

# Key Interfaces

  - SessionStore: persists and loads tutorial Sessions.
  - DistributedLocker: serializes access to one session across instances.
  - ProgressStore: keeps the completion history of each learner.

RunSessionStoreContract is a reusable test suite every SessionStore adapter runs.
*/
package ports
