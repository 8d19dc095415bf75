// Package schemas holds the JSON Schema documents for request bodies and
// config files.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	ThresholdsUpdate  = "thresholds_update.schema.json"
	LoopRequest       = "loop_request.schema.json"
	GenerationRequest = "generation_request.schema.json"
	ConfigFile        = "config.schema.json"
)
