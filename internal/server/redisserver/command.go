package redisserver

import (
	"bufio"
	"context"
	"errors"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/zumicash/zumi-go/internal/storage"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/pkg/token"
)

// CommandHandler executes commands against a storage.KV.
type CommandHandler struct {
	kv       storage.KV
	password string
	logger   logger.Logger
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(kv storage.KV, password string, log logger.Logger) *CommandHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CommandHandler{kv: kv, password: password, logger: log}
}

// Handle executes one command and buffers its reply on conn.
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, args [][]byte) {
	w := conn.bw
	name := commandName(args[0])

	switch name {
	case "PING":
		h.ping(w, args)
		return
	case "AUTH":
		h.auth(conn, args)
		return
	case "QUIT":
		conn.quit = true
		WriteSimpleString(w, "OK")
		return
	}

	if h.password != "" && !conn.authenticated {
		WriteError(w, "NOAUTH Authentication required.")
		return
	}

	switch name {
	case "SELECT":
		h.selectDB(w, args)
	case "GET":
		h.get(ctx, w, args)
	case "SET":
		h.set(ctx, w, args)
	case "DEL":
		h.del(ctx, w, args)
	case "EXISTS":
		h.exists(ctx, w, args)
	case "INCR":
		h.incr(ctx, w, args)
	case "SCAN":
		h.scan(ctx, w, args)
	default:
		WriteError(w, "ERR unknown command '"+strings.ToLower(name)+"'")
	}
}

func wrongArgs(w *bufio.Writer, name string) {
	WriteError(w, "ERR wrong number of arguments for '"+strings.ToLower(name)+"' command")
}

func (h *CommandHandler) storageErr(w *bufio.Writer, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotInteger):
		WriteError(w, "ERR value is not an integer or out of range")
	default:
		h.logger.Error("redis command failed", "command", op, "error", err)
		WriteError(w, "ERR "+err.Error())
	}
}

func (h *CommandHandler) ping(w *bufio.Writer, args [][]byte) {
	switch len(args) {
	case 1:
		WriteSimpleString(w, "PONG")
	case 2:
		WriteBulk(w, args[1])
	default:
		wrongArgs(w, "ping")
	}
}

// auth accepts "AUTH password" and "AUTH default password".
func (h *CommandHandler) auth(conn *Conn, args [][]byte) {
	w := conn.bw
	if len(args) != 2 && len(args) != 3 {
		wrongArgs(w, "auth")
		return
	}
	if h.password == "" {
		WriteError(w, "ERR AUTH <password> called without any password configured")
		return
	}
	pass := args[len(args)-1]
	if !token.Equal(pass, []byte(h.password)) {
		h.logger.Warn("redis auth failed", "remote", conn.RemoteAddr().String())
		WriteError(w, "WRONGPASS invalid username-password pair")
		return
	}
	conn.authenticated = true
	WriteSimpleString(w, "OK")
}

func (h *CommandHandler) selectDB(w *bufio.Writer, args [][]byte) {
	if len(args) != 2 {
		wrongArgs(w, "select")
		return
	}
	if string(args[1]) != "0" {
		WriteError(w, "ERR DB index is out of range")
		return
	}
	WriteSimpleString(w, "OK")
}

func (h *CommandHandler) get(ctx context.Context, w *bufio.Writer, args [][]byte) {
	if len(args) != 2 {
		wrongArgs(w, "get")
		return
	}
	val, err := h.kv.Get(ctx, string(args[1]))
	if errors.Is(err, storage.ErrKeyNotFound) {
		WriteNullBulk(w)
		return
	}
	if err != nil {
		h.storageErr(w, "get", err)
		return
	}
	if val == nil {
		val = []byte{}
	}
	WriteBulk(w, val)
}

// set supports SET key value [EX seconds | PX milliseconds].
func (h *CommandHandler) set(ctx context.Context, w *bufio.Writer, args [][]byte) {
	if len(args) != 3 && len(args) != 5 {
		wrongArgs(w, "set")
		return
	}

	var ttl time.Duration
	if len(args) == 5 {
		n, err := strconv.ParseInt(string(args[4]), 10, 64)
		if err != nil || n <= 0 {
			WriteError(w, "ERR invalid expire time in 'set' command")
			return
		}
		switch commandName(args[3]) {
		case "EX":
			ttl = time.Duration(n) * time.Second
		case "PX":
			ttl = time.Duration(n) * time.Millisecond
		default:
			WriteError(w, "ERR syntax error")
			return
		}
	}

	if err := h.kv.Put(ctx, string(args[1]), args[2], ttl); err != nil {
		h.storageErr(w, "set", err)
		return
	}
	WriteSimpleString(w, "OK")
}

func (h *CommandHandler) del(ctx context.Context, w *bufio.Writer, args [][]byte) {
	if len(args) < 2 {
		wrongArgs(w, "del")
		return
	}
	var removed int64
	for _, k := range args[1:] {
		key := string(k)
		if _, err := h.kv.Get(ctx, key); err != nil {
			if !errors.Is(err, storage.ErrKeyNotFound) {
				h.storageErr(w, "del", err)
				return
			}
			continue
		}
		if err := h.kv.Delete(ctx, key); err != nil {
			h.storageErr(w, "del", err)
			return
		}
		removed++
	}
	WriteInteger(w, removed)
}

func (h *CommandHandler) exists(ctx context.Context, w *bufio.Writer, args [][]byte) {
	if len(args) < 2 {
		wrongArgs(w, "exists")
		return
	}
	var n int64
	for _, k := range args[1:] {
		_, err := h.kv.Get(ctx, string(k))
		switch {
		case err == nil:
			n++
		case !errors.Is(err, storage.ErrKeyNotFound):
			h.storageErr(w, "exists", err)
			return
		}
	}
	WriteInteger(w, n)
}

func (h *CommandHandler) incr(ctx context.Context, w *bufio.Writer, args [][]byte) {
	if len(args) != 2 {
		wrongArgs(w, "incr")
		return
	}
	n, err := h.kv.Increment(ctx, string(args[1]))
	if err != nil {
		h.storageErr(w, "incr", err)
		return
	}
	WriteInteger(w, n)
}

// scan returns every match in one page, so the reply cursor is always 0.
func (h *CommandHandler) scan(ctx context.Context, w *bufio.Writer, args [][]byte) {
	if len(args) < 2 || len(args)%2 != 0 {
		wrongArgs(w, "scan")
		return
	}
	if string(args[1]) != "0" {
		WriteError(w, "ERR invalid cursor")
		return
	}

	pattern := "*"
	for i := 2; i < len(args); i += 2 {
		switch commandName(args[i]) {
		case "MATCH":
			pattern = string(args[i+1])
		case "COUNT":
			if _, err := strconv.Atoi(string(args[i+1])); err != nil {
				WriteError(w, "ERR value is not an integer or out of range")
				return
			}
		default:
			WriteError(w, "ERR syntax error")
			return
		}
	}

	prefix, literal := globPrefix(pattern)
	keys, err := h.kv.ScanPrefix(ctx, prefix)
	if err != nil {
		h.storageErr(w, "scan", err)
		return
	}
	if !literal {
		matched := keys[:0]
		for _, k := range keys {
			if ok, _ := path.Match(pattern, k); ok {
				matched = append(matched, k)
			}
		}
		keys = matched
	}

	WriteArrayHeader(w, 2)
	WriteBulk(w, []byte("0"))
	WriteStrings(w, keys)
}

// globPrefix returns the literal prefix of a glob pattern, unescaping
// backslashes. literal reports whether the pattern is exactly prefix + "*".
func globPrefix(pattern string) (prefix string, literal bool) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteByte(pattern[i])
				continue
			}
			return b.String(), false
		case '*':
			return b.String(), i == len(pattern)-1
		case '?', '[':
			return b.String(), false
		}
		b.WriteByte(c)
	}
	// No wildcard at all: exact key match via path.Match.
	return b.String(), false
}
