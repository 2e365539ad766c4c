/*
main.go - Workforce engine CLI entry point

PURPOSE:
  One binary for running and operating the allocation engine:

    workforce serve    Run the planning API server
    workforce ingest   Load an upstream plan document into the store
    workforce report   Print the allocation rollup for the stored snapshot

CONFIGURATION:
  All commands read the same configuration file (--config, JSON or YAML)
  with WF_-prefixed environment overrides on top. A missing file yields a
  runnable default configuration: sqlite store at ./workforce.db, API on
  :8080, five-minute background refresh.

EXAMPLES:
  # Run the API against a file database
  ./workforce serve --config ./workforce.yaml

  # Development mode: in-memory store, readable logs
  WF_STORE__DRIVER=memory WF_LOGGING__PRETTY=true ./workforce serve

  # Load a plan export, then inspect the rollup
  ./workforce ingest ./plans/spring.json
  ./workforce report

SEE ALSO:
  - root.go: command tree and shared store wiring
  - serve.go: server assembly and graceful shutdown
  - config/: file format and defaults
*/
package main

func main() {
	Execute()
}
