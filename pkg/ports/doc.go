/*
Package ports defines the boundary interfaces of the Arbor engine.

Following a hexagonal layout, the engine core depends only on these
interfaces; concrete adapters (memory, file, redis, HTTP, MCP) live in
internal/adapters and are wired by the host.
*/
package ports
