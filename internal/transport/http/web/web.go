// Package web embeds the single-page UI.
package web

import "embed"

// Root is the directory inside Static that is served at "/".
const Root = "static"

//go:embed static
var Static embed.FS
