package collect

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/climap/internal/models"
	"github.com/starford/climap/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeSource struct {
	name  string
	delay time.Duration
	obs   []models.Observation
	err   error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Fetch(ctx context.Context) ([]models.Observation, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.obs, f.err
}

func TestGather_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	got := Gather(context.Background(), []Source{
		fakeSource{name: "brew", delay: 30 * time.Millisecond, obs: []models.Observation{{Name: "bat"}}},
		fakeSource{name: "scoop", err: boom},
		fakeSource{name: "toolleeo", obs: []models.Observation{{Name: "fd"}, {Name: "jq"}}},
	}, 0, testLogger())

	if len(got) != 3 {
		t.Fatalf("batches = %d", len(got))
	}
	if len(got["brew"].Observations) != 1 || got["brew"].Err != nil {
		t.Errorf("brew batch = %+v", got["brew"])
	}
	var fe *FetchError
	if !errors.As(got["scoop"].Err, &fe) || fe.Source != "scoop" || !errors.Is(got["scoop"].Err, boom) {
		t.Errorf("scoop err = %v", got["scoop"].Err)
	}
	if len(got["toolleeo"].Observations) != 2 {
		t.Errorf("toolleeo batch = %+v", got["toolleeo"])
	}
}

type countingSource struct {
	name         string
	active, peak *atomic.Int32
}

func (c countingSource) Name() string { return c.name }

func (c countingSource) Fetch(context.Context) ([]models.Observation, error) {
	n := c.active.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	c.active.Add(-1)
	return nil, nil
}

func TestGather_Limit(t *testing.T) {
	var active, peak atomic.Int32
	var sources []Source
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		sources = append(sources, countingSource{name: n, active: &active, peak: &peak})
	}
	Gather(context.Background(), sources, 2, testLogger())
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestFileSource(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("raw/brew.json", []byte(`{"source":"brew","packages":[{"name":"bat","source_id":"bat","popularity_rank":3},{"name":"fd","source":"homebrew"}]}`))
	_ = store.Write("raw/scoop.json", []byte(`not json`))

	obs, err := FileSource{Store: store, Dir: "raw", Source: "brew"}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(obs) != 2 || obs[0].Source != "brew" || obs[1].Source != "homebrew" {
		t.Errorf("observations = %+v", obs)
	}
	if obs[0].PopularityRank == nil || *obs[0].PopularityRank != 3 {
		t.Errorf("rank = %v", obs[0].PopularityRank)
	}

	_, err = FileSource{Store: store, Dir: "raw", Source: "scoop"}.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("decode error = %v, want *FetchError", err)
	}
	_, err = FileSource{Store: store, Dir: "raw", Source: "npm"}.Fetch(context.Background())
	if !errors.As(err, &fe) {
		t.Errorf("missing file error = %v, want *FetchError", err)
	}
}

func TestDiscover(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("raw/scoop.json", []byte("{}"))
	_ = store.Write("raw/brew.json", []byte("{}"))
	_ = store.Write("raw/old/npm.json", []byte("{}"))
	_ = store.Write("raw/readme.md", []byte(""))

	got, err := Discover(store, "raw")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"brew", "scoop"}) {
		t.Errorf("Discover = %v", got)
	}
}
