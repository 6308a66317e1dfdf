package images

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"
)

// URLPrefix is where stored images are served.
const URLPrefix = "/images/"

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 5 * 1024 * 1024

var (
	ErrNoFile      = errors.New("no file provided")
	ErrType        = errors.New("invalid file type")
	ErrTooLarge    = errors.New("file too large")
	ErrNotFound    = errors.New("image not found")
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// Allowed lists the accepted extensions, lowercase with the dot.
var Allowed = []string{".gif", ".jpeg", ".jpg", ".png", ".svg", ".webp"}

// Saved is the reference handed back to the caller; only Path is stored on items.
type Saved struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// Store keeps uploaded item pictures in a flat directory. It is safe for concurrent
// use.
type Store struct {
	d        *diskv.Diskv
	maxBytes int64

	// mu covers picking a free name and writing it.
	mu sync.Mutex
}

func New(dir string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 4 * 1024 * 1024,
		}),
		maxBytes: maxBytes,
	}
}

func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save validates and stores one upload under a sanitized, collision-free name.
func (s *Store) Save(filename string, r io.Reader) (Saved, error) {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return Saved{}, ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed(ext) {
		return Saved{}, fmt.Errorf("%w (allowed: %s)", ErrType, strings.Join(Allowed, ", "))
	}

	// Read one byte past the limit so oversize input is detected without buffering
	// all of it.
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Saved{}, err
	}
	if n > s.maxBytes {
		return Saved{}, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, s.maxBytes)
	}

	stem := unsafeFilename.ReplaceAllString(strings.TrimSuffix(filename, filepath.Ext(filename)), "_")
	if stem == "" {
		stem = "image"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := stem + ext
	for i := 1; s.d.Has(name); i++ {
		name = stem + "_" + strconv.Itoa(i) + ext
	}
	if err := s.d.Write(name, buf.Bytes()); err != nil {
		return Saved{}, err
	}
	return Saved{Path: URLPrefix + name, Filename: name}, nil
}

// Import turns an image reference typed by a user into one an item can store. URLs and
// already-stored paths are kept; anything else is read as a local file and saved.
func (s *Store) Import(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, URLPrefix) ||
		strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	path, err := homedir.Expand(ref)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	saved, err := s.Save(filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	return saved.Path, nil
}

// Open returns the stored bytes for name as served under URLPrefix.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	name = strings.TrimPrefix(name, URLPrefix)
	if name == "" || name != filepath.Base(name) || !allowed(strings.ToLower(filepath.Ext(name))) || !s.d.Has(name) {
		return nil, ErrNotFound
	}
	return s.d.ReadStream(name, false)
}

// Resolves reports whether an item image reference points at a stored image. External
// URLs are assumed to resolve.
func (s *Store) Resolves(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if !strings.HasPrefix(ref, URLPrefix) {
		return true
	}
	return s.d.Has(strings.TrimPrefix(ref, URLPrefix))
}

// List returns stored filenames in lexical order.
func (s *Store) List() []string {
	out := []string{}
	for k := range s.d.Keys(nil) {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func allowed(ext string) bool {
	for _, a := range Allowed {
		if a == ext {
			return true
		}
	}
	return false
}
