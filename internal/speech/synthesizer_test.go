package speech

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeTTS struct {
	lastText string
	wav      []byte
	err      error
}

func (f *fakeTTS) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.lastText = text
	return f.wav, f.err
}

func TestSpeakWritesPlayableFile(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeTTS{wav: makeWave(t, 22050, 16000, 2205)}
	synth := NewSynthesizer(fake, nil, slog.New(slog.DiscardHandler), dir)

	audioURL, err := synth.Speak(context.Background(), "আপনার অর্ডার কনফার্ম হয়েছে")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if !strings.HasPrefix(audioURL, "/static/tts/tts_") || !strings.HasSuffix(audioURL, ".wav") {
		t.Fatalf("audio url = %q", audioURL)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(audioURL)))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if _, err := parseWave(data); err != nil {
		t.Fatalf("output is not a valid wave: %v", err)
	}
}

func TestSpeakSpellsOutDigits(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeTTS{wav: makeWave(t, 22050, 16000, 2205)}
	synth := NewSynthesizer(fake, nil, slog.New(slog.DiscardHandler), dir)

	if _, err := synth.Speak(context.Background(), "দাম ৯০০ টাকা"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if strings.ContainsAny(fake.lastText, "0123456789০১২৩৪৫৬৭৮৯") {
		t.Fatalf("digits sent to tts verbatim: %q", fake.lastText)
	}
	if !strings.Contains(fake.lastText, "নয় শ") {
		t.Fatalf("৯০০ not spelled out: %q", fake.lastText)
	}
}

func TestSpeakSoftensHardStops(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeTTS{wav: makeWave(t, 22050, 16000, 2205)}
	synth := NewSynthesizer(fake, nil, slog.New(slog.DiscardHandler), dir)

	if _, err := synth.Speak(context.Background(), "সাইজ বলুন। তারপর কালার বলুন।"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if !strings.Contains(fake.lastText, ", তারপর") {
		t.Fatalf("hard stop not softened: %q", fake.lastText)
	}
}

func TestSpeakServesUnprocessableAudioAsIs(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeTTS{wav: []byte("opus-encoded or otherwise unknown")}
	synth := NewSynthesizer(fake, nil, slog.New(slog.DiscardHandler), dir)

	audioURL, err := synth.Speak(context.Background(), "টেস্ট")
	if err != nil {
		t.Fatalf("Speak must not fail on unprocessable audio: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(audioURL)))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "opus-encoded or otherwise unknown" {
		t.Fatal("raw audio not preserved")
	}
}
