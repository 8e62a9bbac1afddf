package dsp

import (
	"math"
	"testing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestHamming(t *testing.T) {
	w := Hamming(64)
	if len(w) != 64 {
		t.Fatalf("got %d points, want 64", len(w))
	}
	// Symmetric, edges at 0.08, peak near the middle.
	if math.Abs(w[0]-0.08) > 1e-9 || math.Abs(w[63]-0.08) > 1e-9 {
		t.Errorf("edges = %v, %v, want 0.08", w[0], w[63])
	}
	for i := range w {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-9 {
			t.Fatalf("window asymmetric at %d", i)
		}
	}
	if Max(w) > 1.0 || Max(w) < 0.99 {
		t.Errorf("peak = %v, want just under 1.0", Max(w))
	}
}

func TestSTFTFrameLayout(t *testing.T) {
	const sr = 8000
	samples := sine(440, sr, sr) // 1 second

	spec, err := STFT(samples, 1024, 256)
	if err != nil {
		t.Fatalf("STFT() error: %v", err)
	}

	wantFrames := (len(samples)-1024)/256 + 1
	if len(spec) != wantFrames {
		t.Errorf("got %d frames, want %d", len(spec), wantFrames)
	}
	for i, frame := range spec {
		if len(frame) != 512 {
			t.Fatalf("frame %d has %d bins, want 512", i, len(frame))
		}
	}

	// The strongest bin should sit at 440Hz.
	peak := 0
	for k, m := range spec[0] {
		if m > spec[0][peak] {
			peak = k
		}
	}
	peakHz := float64(peak) * float64(sr) / 1024
	if math.Abs(peakHz-440) > float64(sr)/1024 {
		t.Errorf("peak at %vHz, want near 440", peakHz)
	}
}

func TestSTFTErrors(t *testing.T) {
	if _, err := STFT(make([]float64, 100), 1024, 256); err == nil {
		t.Error("short input should error")
	}
	if _, err := STFT(make([]float64, 4096), 0, 256); err == nil {
		t.Error("zero window should error")
	}
	if _, err := STFT(make([]float64, 4096), 1024, -1); err == nil {
		t.Error("negative hop should error")
	}
}

func TestOnsetEnvelope(t *testing.T) {
	spec := [][]float64{
		{0, 0, 0},
		{1, 2, 3}, // all bins rise: flux 6
		{1, 2, 3}, // unchanged: flux 0
		{0, 5, 0}, // bin 1 rises by 3, the rest fall
	}
	onset := OnsetEnvelope(spec)

	want := []float64{0, 6, 0, 3}
	for i := range want {
		if math.Abs(onset[i]-want[i]) > 1e-9 {
			t.Errorf("onset[%d] = %v, want %v", i, onset[i], want[i])
		}
	}
}

func TestRMSFrames(t *testing.T) {
	// Constant 0.5 signal has RMS 0.5 everywhere.
	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = 0.5
	}
	rms := RMSFrames(samples, 1024, 512)
	if len(rms) == 0 {
		t.Fatal("no frames")
	}
	for i, v := range rms {
		if math.Abs(v-0.5) > 1e-9 {
			t.Errorf("rms[%d] = %v, want 0.5", i, v)
		}
	}

	if got := RMSFrames(make([]float64, 10), 1024, 512); got != nil {
		t.Errorf("short input: got %v, want nil", got)
	}
}

func TestSpectralCentroidsOnSine(t *testing.T) {
	const sr = 8000
	spec, err := STFT(sine(1000, sr, sr), 2048, 512)
	if err != nil {
		t.Fatalf("STFT() error: %v", err)
	}
	centroids := SpectralCentroids(spec, sr, 2048)
	if got := Mean(centroids); math.Abs(got-1000) > 100 {
		t.Errorf("mean centroid = %v, want near 1000", got)
	}
}

func TestSpectralRolloffs(t *testing.T) {
	const sr = 8000
	spec, err := STFT(sine(1000, sr, sr), 2048, 512)
	if err != nil {
		t.Fatalf("STFT() error: %v", err)
	}
	rolloffs := SpectralRolloffs(spec, sr, 2048, 0.85)
	// A pure tone concentrates its energy at the tone: rolloff lands near it.
	if got := Mean(rolloffs); math.Abs(got-1000) > 200 {
		t.Errorf("mean rolloff = %v, want near 1000", got)
	}
}

func TestZeroCrossingRate(t *testing.T) {
	const sr = 8000
	// A 1000Hz tone crosses zero 2000 times per second, so a frame of 1024
	// samples sees about 256 crossings.
	zcr := ZeroCrossingRate(sine(1000, sr, sr), 1024, 512)
	if len(zcr) == 0 {
		t.Fatal("no frames")
	}
	want := 2.0 * 1000.0 / float64(sr)
	if got := Mean(zcr); math.Abs(got-want) > want*0.1 {
		t.Errorf("mean zcr = %v, want near %v", got, want)
	}
}

func TestChromaFramesPitchClass(t *testing.T) {
	const sr = 8000
	// 440Hz is A, nine semitones above the C reference.
	spec, err := STFT(sine(440, sr, sr), 4096, 2048)
	if err != nil {
		t.Fatalf("STFT() error: %v", err)
	}
	frames := ChromaFrames(spec, sr, 4096)
	if len(frames) == 0 {
		t.Fatal("no chroma frames")
	}

	chroma := frames[0]
	if len(chroma) != 12 {
		t.Fatalf("got %d pitch classes, want 12", len(chroma))
	}
	peak := 0
	for pc, v := range chroma {
		if v > chroma[peak] {
			peak = pc
		}
	}
	if peak != 9 {
		t.Errorf("peak pitch class = %d, want 9 (A)", peak)
	}
}

func TestFrameTime(t *testing.T) {
	if got := FrameTime(10, 8000, 512); math.Abs(got-0.64) > 1e-9 {
		t.Errorf("FrameTime = %v, want 0.64", got)
	}
	if got := FrameTime(0, 44100, 512); got != 0 {
		t.Errorf("FrameTime(0) = %v, want 0", got)
	}
}

func TestMeanAndMax(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v", got)
	}
	if got := Mean([]float64{1, 2, 3}); got != 2 {
		t.Errorf("Mean = %v, want 2", got)
	}
	if got := Max(nil); got != 0 {
		t.Errorf("Max(nil) = %v", got)
	}
	if got := Max([]float64{-3, -1, -2}); got != -1 {
		t.Errorf("Max = %v, want -1", got)
	}
}
