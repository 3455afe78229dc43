package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zumicash/zumi-go/pkg/crypto/adaptive"
)

var magicBytes = []byte("ZUMISNAP")

const (
	filePrefix    = "snapshot-"
	fileExtension = ".snap"
	checksumSize  = sha256.Size
	formatVersion = 1

	DefaultRetentionCount = 3
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNoSnapshots      = errors.New("snapshot: no snapshots available")
)

// Source is a store that can enumerate its live entries.
type Source interface {
	Dump(fn func(key string, value []byte, expiresAt time.Time) bool)
}

// Sink is a store that accepts entries with an absolute expiry.
type Sink interface {
	Restore(key string, value []byte, expiresAt time.Time) bool
}

type header struct {
	Version    int    `json:"version"`
	CreatedAt  int64  `json:"created_at"`
	EntryCount int    `json:"entry_count"`
	Cipher     string `json:"cipher,omitempty"`
	Salt       []byte `json:"salt,omitempty"`
}

type fileEntry struct {
	Key       string `json:"k"`
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"e,omitempty"` // Unix milliseconds, 0 = none
}

// Config configures a Manager.
type Config struct {
	Dir string

	// RetentionCount is how many snapshot files Prune keeps.
	RetentionCount int

	// Passphrase enables encryption when non-empty.
	Passphrase []byte

	// Algorithm overrides the cipher choice for new snapshots.
	Algorithm adaptive.Algorithm
}

// Info describes one snapshot file.
type Info struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	CreatedAt  int64  `json:"created_at"`
	EntryCount int    `json:"entry_count"`
	Encrypted  bool   `json:"encrypted"`
	Checksum   string `json:"checksum,omitempty"`
}

// Manager creates, restores and prunes snapshot files in one directory.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager creates the snapshot directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, errors.New("snapshot: dir is required")
	}
	if n := len(cfg.Passphrase); n > 0 && n < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	if cfg.RetentionCount <= 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// Create writes every live entry of src to a new snapshot file, then
// prunes old files.
func (m *Manager) Create(src Source) (*Info, error) {
	now := m.now()
	var entries []fileEntry
	src.Dump(func(key string, value []byte, expiresAt time.Time) bool {
		e := fileEntry{Key: key, Value: append([]byte(nil), value...)}
		if !expiresAt.IsZero() {
			e.ExpiresAt = expiresAt.UnixMilli()
		}
		entries = append(entries, e)
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	body, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal entries: %w", err)
	}

	hdr := header{Version: formatVersion, CreatedAt: now.UnixMilli(), EntryCount: len(entries)}
	if len(m.cfg.Passphrase) > 0 {
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		c, err := newCipher(m.cfg.Algorithm, m.cfg.Passphrase, salt)
		if err != nil {
			return nil, err
		}
		hdr.Cipher = string(c.Algorithm())
		hdr.Salt = salt
		if body, err = c.Seal(body, magicBytes); err != nil {
			return nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}
	}

	id := m.generateID(now)
	finalPath := filepath.Join(m.cfg.Dir, id+fileExtension)
	sum, size, err := writeFile(finalPath, hdr, body)
	if err != nil {
		return nil, err
	}
	if err := m.Prune(); err != nil {
		return nil, err
	}

	return &Info{
		ID:         id,
		Path:       finalPath,
		Size:       size,
		CreatedAt:  hdr.CreatedAt,
		EntryCount: hdr.EntryCount,
		Encrypted:  hdr.Cipher != "",
		Checksum:   hex.EncodeToString(sum),
	}, nil
}

// writeFile writes through a temp file and renames it into place.
func writeFile(path string, hdr header, body []byte) (sum []byte, size int64, err error) {
	tempPath := path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, 0, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	hash := sha256.New()
	bw := bufio.NewWriter(io.MultiWriter(file, hash))
	var lenBuf [4]byte
	bw.Write(magicBytes)
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdrJSON)))
	bw.Write(lenBuf[:])
	bw.Write(hdrJSON)
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	bw.Write(lenBuf[:])
	bw.Write(body)
	if err := bw.Flush(); err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("snapshot: write: %w", err)
	}

	sum = hash.Sum(nil)
	if _, err := file.Write(sum); err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("snapshot: sync: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	if err := file.Close(); err != nil {
		return nil, 0, fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return nil, 0, fmt.Errorf("snapshot: rename: %w", err)
	}
	return sum, stat.Size(), nil
}

// Restore loads the newest readable snapshot into dst. Corrupt files are
// skipped in favor of older ones. It returns the snapshot used and the
// number of entries restored; expired entries are not counted.
func (m *Manager) Restore(dst Sink) (*Info, int, error) {
	infos, err := m.List()
	if err != nil {
		return nil, 0, err
	}
	for i := len(infos) - 1; i >= 0; i-- {
		info, entries, err := m.readFile(infos[i].Path)
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		restored := 0
		for _, e := range entries {
			var exp time.Time
			if e.ExpiresAt > 0 {
				exp = time.UnixMilli(e.ExpiresAt)
			}
			if dst.Restore(e.Key, e.Value, exp) {
				restored++
			}
		}
		return info, restored, nil
	}
	return nil, 0, ErrNoSnapshots
}

func (m *Manager) readFile(path string) (*Info, []fileEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if stat.Size() < int64(len(magicBytes))+8+checksumSize {
		return nil, nil, ErrChecksumMismatch
	}

	dataLen := stat.Size() - checksumSize
	expected := make([]byte, checksumSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, dataLen, checksumSize), expected); err != nil {
		return nil, nil, err
	}
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(f, 0, dataLen)); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(h.Sum(nil), expected) {
		return nil, nil, ErrChecksumMismatch
	}

	br := bufio.NewReader(io.NewSectionReader(f, 0, dataLen))
	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(magic, magicBytes) {
		return nil, nil, ErrInvalidMagic
	}

	hdrJSON, err := readBlock(br, dataLen)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: header: %w", err)
	}
	var hdr header
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != formatVersion {
		return nil, nil, fmt.Errorf("snapshot: unsupported version %d", hdr.Version)
	}

	body, err := readBlock(br, dataLen)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: body: %w", err)
	}
	if hdr.Cipher != "" {
		if len(m.cfg.Passphrase) == 0 {
			return nil, nil, ErrPassphraseNeeded
		}
		c, err := newCipher(adaptive.Algorithm(hdr.Cipher), m.cfg.Passphrase, hdr.Salt)
		if err != nil {
			return nil, nil, err
		}
		if body, err = c.Open(body, magicBytes); err != nil {
			return nil, nil, ErrDecryptionFailed
		}
	}

	var entries []fileEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal entries: %w", err)
	}

	return &Info{
		ID:         strings.TrimSuffix(filepath.Base(path), fileExtension),
		Path:       path,
		Size:       stat.Size(),
		CreatedAt:  hdr.CreatedAt,
		EntryCount: hdr.EntryCount,
		Encrypted:  hdr.Cipher != "",
		Checksum:   hex.EncodeToString(expected),
	}, entries, nil
}

func readBlock(r io.Reader, limit int64) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if int64(n) > limit {
		return nil, fmt.Errorf("block length %d exceeds file size", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// List returns snapshot files oldest first (metadata from the file system only).
func (m *Manager) List() ([]*Info, error) {
	dirEntries, err := os.ReadDir(m.cfg.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var infos []*Info
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, &Info{
			ID:   strings.TrimSuffix(name, fileExtension),
			Path: filepath.Join(m.cfg.Dir, name),
			Size: fi.Size(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Prune deletes all but the newest RetentionCount snapshots.
func (m *Manager) Prune() error {
	infos, err := m.List()
	if err != nil {
		return err
	}
	var errs []error
	for i := 0; i < len(infos)-m.cfg.RetentionCount; i++ {
		if err := os.Remove(infos[i].Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// generateID names files so lexical order is creation order.
func (m *Manager) generateID(t time.Time) string {
	stem := filePrefix + t.UTC().Format("20060102T150405") + "-"
	seq := 0
	entries, _ := os.ReadDir(m.cfg.Dir)
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), fileExtension)
		if !strings.HasPrefix(name, stem) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(name, stem)); err == nil && n > seq {
			seq = n
		}
	}
	return fmt.Sprintf("%s%04d", stem, seq+1)
}
