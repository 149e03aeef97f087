// Package services implements the core business logic: lexical search,
// the grounded-answer pipeline, corpus analysis, and the update agent.
// Services depend on driven ports and are consumed through driving
// ports; everything is constructed at startup and threaded explicitly.
package services
