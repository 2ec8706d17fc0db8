// Package scriptsource loads the scripts given to the runner: local files,
// standard input, or http(s) URLs fetched through an on-disk HTTP cache.
package scriptsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/birkelund/boltdbcache"
	"github.com/gregjones/httpcache"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

// Source is a loaded script.
type Source struct {
	// Name is shown in stack traces: the path or URL it was loaded from.
	Name string
	Code string
	// Cached is set when the script was served from the HTTP cache.
	Cached bool
}

// Options configure a Loader.
type Options struct {
	// CacheDir holds the cache database. It is created if needed.
	CacheDir string
	// DisableCache fetches every remote script from the network.
	DisableCache bool
	// Timeout bounds each remote fetch. Zero means no timeout.
	Timeout time.Duration
	Logger  logrus.FieldLogger
	// Stdin is read for the "-" reference. Defaults to os.Stdin.
	Stdin io.Reader
}

// Loader resolves script references. It is safe for concurrent use.
type Loader struct {
	db     *bbolt.DB
	client *http.Client
	log    logrus.FieldLogger
	stdin  io.Reader
}

// New opens the cache database (unless disabled) and returns a Loader.
func New(opts Options) (*Loader, error) {
	l := &Loader{log: opts.Logger, stdin: opts.Stdin}
	if l.log == nil {
		l.log = logrus.StandardLogger()
	}
	if l.stdin == nil {
		l.stdin = os.Stdin
	}

	transport := http.DefaultTransport
	if !opts.DisableCache {
		dir := opts.CacheDir
		if dir == "" {
			userDir, err := os.UserCacheDir()
			if err != nil {
				return nil, fmt.Errorf("failed to determine cache directory: %v", err)
			}
			dir = filepath.Join(userDir, "v8shim")
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %v", err)
		}
		db, err := bbolt.Open(filepath.Join(dir, "scripts.db"), 0600, &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache database: %v", err)
		}
		cache, err := boltdbcache.NewWithDB(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open cache: %v", err)
		}
		l.db = db
		transport = &httpcache.Transport{Cache: cache, MarkCachedResponses: true}
		l.log.WithField("dir", dir).Debug("script cache opened")
	}
	l.client = &http.Client{Transport: transport, Timeout: opts.Timeout}
	return l, nil
}

// Close releases the cache database.
func (l *Loader) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Load reads the script named by ref: "-" for standard input, an http or
// https URL, a file URL, or a local path.
func (l *Loader) Load(ctx context.Context, ref string) (Source, error) {
	if ref == "-" {
		code, err := io.ReadAll(l.stdin)
		if err != nil {
			return Source{}, fmt.Errorf("read stdin: %v", err)
		}
		return Source{Name: "<stdin>", Code: string(code)}, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Not a URL, or a windows drive letter.
		return l.readFile(ref)
	}
	switch u.Scheme {
	case "http", "https":
		return l.fetch(ctx, u)
	case "file":
		if u.Host != "" {
			u.Path = u.Host + u.Path
		}
		return l.readFile(u.Path)
	default:
		return Source{}, fmt.Errorf("fetching %q not supported", ref)
	}
}

func (l *Loader) readFile(path string) (Source, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %q: %v", path, err)
	}
	return Source{Name: path, Code: string(code)}, nil
}

func (l *Loader) fetch(ctx context.Context, u *url.URL) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Source{}, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return Source{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("fetch %q: %s", u, resp.Status)
	}
	code, err := io.ReadAll(resp.Body)
	if err != nil {
		return Source{}, fmt.Errorf("read %q: %v", u, err)
	}
	cached := resp.Header.Get(httpcache.XFromCache) != ""
	l.log.WithFields(logrus.Fields{"url": u.String(), "cached": cached}).Debug("script fetched")
	return Source{Name: u.String(), Code: string(code), Cached: cached}, nil
}
