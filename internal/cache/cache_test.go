package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mlx93/VideoGen/pkg/models"
)

func sampleAnalysis(bpm float64) *models.AudioAnalysis {
	return &models.AudioAnalysis{
		BPM:            bpm,
		BeatTimestamps: []float64{0, 0.5, 1.0},
		Mood:           models.Mood{Primary: models.MoodEnergetic, Confidence: 0.8},
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("same bytes"))
	b := ContentHash([]byte("same bytes"))
	c := ContentHash([]byte("different bytes"))

	if a != b {
		t.Errorf("identical input hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different input produced the same hash")
	}
	if len(a) != 32 {
		t.Errorf("hash length = %d, want 32 hex chars", len(a))
	}
}

func TestKey(t *testing.T) {
	if got := Key("abc123"); got != "audio_cache:abc123" {
		t.Errorf("Key() = %q", got)
	}
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	key := Key(ContentHash([]byte("track")))
	if err := store.Put(key, sampleAnalysis(128), time.Minute); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() missed a fresh entry")
	}
	if got.BPM != 128 || len(got.BeatTimestamps) != 3 {
		t.Errorf("got %+v", got)
	}

	// Cached copies must be isolated from caller mutation.
	got.BPM = 999
	again, _ := store.Get(key)
	if again.BPM != 128 {
		t.Errorf("mutating a returned analysis leaked into the cache: %v", again.BPM)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	got, err := store.Get("audio_cache:nope")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("miss returned %+v, want nil", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	key := Key("expired")
	if err := store.Put(key, sampleAnalysis(100), time.Millisecond); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("expired entry returned %+v, want nil", got)
	}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	defer store.Close()

	key := Key(ContentHash([]byte("track")))
	if err := store.Put(key, sampleAnalysis(95), time.Minute); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.BPM != 95 {
		t.Fatalf("got %+v, want BPM 95", got)
	}

	if missed, _ := store.Get(Key("absent")); missed != nil {
		t.Errorf("miss returned %+v, want nil", missed)
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	defer store.Close()

	key := Key("dup")
	if err := store.Put(key, sampleAnalysis(90), time.Minute); err != nil {
		t.Fatalf("first Put() error: %v", err)
	}
	if err := store.Put(key, sampleAnalysis(140), time.Minute); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.BPM != 140 {
		t.Errorf("BPM = %v, want last write 140", got.BPM)
	}
}

func TestSQLiteStoreExpiry(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	defer store.Close()

	key := Key("stale")
	if err := store.Put(key, sampleAnalysis(100), time.Millisecond); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("expired row returned %+v, want nil", got)
	}
}

func TestTieredFallthrough(t *testing.T) {
	fast := NewMemoryStore()
	durable := NewMemoryStore()
	tiered := NewTiered(fast, durable)
	defer tiered.Close()

	key := Key("fallthrough")
	// Seed only the durable tier, as after a process restart.
	if err := durable.Put(key, sampleAnalysis(110), time.Minute); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := tiered.Get(key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.BPM != 110 {
		t.Fatalf("got %+v, want BPM 110 from durable tier", got)
	}

	// The hit must have repopulated the fast tier.
	if fromFast, _ := fast.Get(key); fromFast == nil || fromFast.BPM != 110 {
		t.Errorf("fast tier not repopulated: %+v", fromFast)
	}
}

func TestTieredWriteThrough(t *testing.T) {
	fast := NewMemoryStore()
	durable := NewMemoryStore()
	tiered := NewTiered(fast, durable)
	defer tiered.Close()

	key := Key("both")
	if err := tiered.Put(key, sampleAnalysis(120), time.Minute); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	if got, _ := fast.Get(key); got == nil {
		t.Error("fast tier missing after write-through")
	}
	if got, _ := durable.Get(key); got == nil {
		t.Error("durable tier missing after write-through")
	}
}

func TestTieredNilTiers(t *testing.T) {
	tiered := NewTiered(nil, nil)

	if got, err := tiered.Get("anything"); err != nil || got != nil {
		t.Errorf("Get() = %v, %v, want nil, nil", got, err)
	}
	if err := tiered.Put("anything", sampleAnalysis(100), time.Minute); err != nil {
		t.Errorf("Put() error: %v", err)
	}
	if err := tiered.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
