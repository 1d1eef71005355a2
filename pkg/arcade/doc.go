// Package arcade is the composition root that assembles a gridrop deployment
// from configuration: it opens the configured key-value store, builds one
// session controller per enabled game and wires the event bus and Prometheus
// metrics into every controller. Frontends talk to Arcade and the session
// types and never open stores directly.
package arcade
