// Package command defines the zumi-cli commands on urfave/cli/v2.
//
// Every action resolves its settings (flags over environment over
// ~/.zumi/cli.yaml), calls zumi-server through the connection package
// and prints the result with the selected output format.
package command
