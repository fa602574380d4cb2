// Package openapi holds the API description served by the server.
package openapi

import _ "embed"

// Spec is openapi.yaml as shipped with the binary
//
//go:embed openapi.yaml
var Spec []byte
