// Package schemas holds the JSON Schemas that constrain structured model replies.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS
