// Package document provides the generic key/value document model used to
// persist operators, channels, layers and networks.
//
// A Node is a string-keyed map whose values are strings, numbers, booleans,
// arrays or nested Nodes. Reading is done through typed accessors that never
// fall back to a silent default: a missing or mistyped required field fails
// with a *FieldError naming the full path of the offending field.
//
//	Document envelope:
//	  format_version: 1
//	  kind:           "network"
//	  created_at:     RFC 3339 timestamp
//	  ...component fields...
//
// Documents are stored as JSON or YAML, chosen by file extension:
//
//	node := net.Encode()
//	if err := document.WriteFile("xor.yaml", document.Envelope(network.DocumentKind, node)); err != nil {
//	    log.Fatal(err)
//	}
//
//	node, err := document.ReadFile("xor.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	net, err := network.Decode(node, network.DefaultConfig())
package document
