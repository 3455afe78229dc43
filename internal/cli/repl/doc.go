// Package repl runs zumi-cli commands interactively.
//
// Each line is split shell-style and handed to a Runner, normally the
// urfave/cli app. A line ending in "?" lists the commands that start with
// the text before it. History is kept in ~/.zumi/history.
package repl
