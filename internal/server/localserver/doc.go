// Package localserver serves management HTTP over a Unix domain socket.
//
// The socket is created with mode 0600, so only the server's user can
// reach it. Requests on it skip admin key checks. zumi-cli talks to it
// with --socket.
package localserver
