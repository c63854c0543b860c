// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/platforms"
)

// FakeGateway is a test double for [platforms.Gateway] backed by in-memory
// fixtures.
type FakeGateway struct {
	Name          string
	Saved         []models.TrackCandidate
	SearchResults map[string]models.TrackCandidate // keyed by "artist - title" of the query
	FetchErr      error
	SearchErr     error
	FetchCalls    int
	SearchCalls   int
}

func (g *FakeGateway) Platform() string {
	return g.Name
}

func (g *FakeGateway) FetchSavedTracks(ctx context.Context) ([]models.TrackCandidate, error) {
	g.FetchCalls++
	if g.FetchErr != nil {
		return nil, g.FetchErr
	}
	return g.Saved, nil
}

func (g *FakeGateway) SearchTrack(ctx context.Context, title, artist string) (*models.TrackCandidate, error) {
	g.SearchCalls++
	if g.SearchErr != nil {
		return nil, g.SearchErr
	}
	if c, ok := g.SearchResults[artist+" - "+title]; ok {
		return &c, nil
	}
	return nil, nil
}

// SearchKey builds the lookup key used by [FakeGateway.SearchResults].
func SearchKey(title, artist string) string {
	return artist + " - " + title
}

// FakeProvider is a test double for the gateway provider consumed by the
// tasks engine. Platforms listed in Gateways resolve to their fake; others
// are unknown.
type FakeProvider struct {
	Gateways map[string]*FakeGateway
	Order    []string
}

func (p *FakeProvider) Names() []string {
	return p.Order
}

func (p *FakeProvider) Validate(name string) error {
	for _, n := range p.Order {
		if n == name {
			return nil
		}
	}
	return errors.New("unknown platform: " + name)
}

func (p *FakeProvider) Connect(name string, cred *models.PlatformCredential, notify platforms.TokenUpdateFunc) (platforms.Gateway, error) {
	g, ok := p.Gateways[name]
	if !ok {
		return nil, errors.New("unknown platform: " + name)
	}
	return g, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
