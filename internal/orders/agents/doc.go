// Package agents holds the workflow stages. Each agent performs one step, logs it and
// emits a result event on the bus; agents never call each other or the presentation
// layer directly.
package agents
