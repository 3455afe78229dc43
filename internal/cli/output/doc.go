// Package output renders zumi-cli results as a table, JSON or YAML.
//
// Values are written as the server returned them for json and yaml. The
// table format uses a Tabler when the value provides one and otherwise
// falls back to a generic field/value layout.
package output
