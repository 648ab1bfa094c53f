package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bot-call/internal/cache"
	"bot-call/internal/script"
)

const (
	targetLoudnessDBFS = -16.0
	fadeInDuration     = 20 * time.Millisecond
	fadeOutDuration    = 50 * time.Millisecond
	audioCacheTTL      = 12 * time.Hour
)

// TTSClient is the synthesis collaborator.
type TTSClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Synthesizer turns reply text into a playable audio resource: clean up
// the text for smoother speech, synthesize, normalize loudness, fade,
// and write the file under the static audio directory.
type Synthesizer struct {
	client    TTSClient
	cache     *cache.Redis
	logger    *slog.Logger
	outputDir string
}

// NewSynthesizer returns a Synthesizer writing files into outputDir.
// cache may be nil; audio URLs are then never reused across identical texts.
func NewSynthesizer(client TTSClient, redisCache *cache.Redis, logger *slog.Logger, outputDir string) *Synthesizer {
	return &Synthesizer{
		client:    client,
		cache:     redisCache,
		logger:    logger.With("component", "synthesizer"),
		outputDir: outputDir,
	}
}

// Speak synthesizes text and returns the URL path of the generated WAV
// under /static/tts/.
func (s *Synthesizer) Speak(ctx context.Context, text string) (string, error) {
	cleaned := cleanForSpeech(text)
	cacheKey := "tts:" + hashText(cleaned)

	if s.cache != nil {
		var cachedURL string
		if found, err := s.cache.GetJSON(ctx, cacheKey, &cachedURL); err == nil && found {
			if _, statErr := os.Stat(filepath.Join(s.outputDir, filepath.Base(cachedURL))); statErr == nil {
				return cachedURL, nil
			}
		}
	}

	wav, err := s.client.Synthesize(ctx, cleaned)
	if err != nil {
		return "", err
	}

	processed, err := PrepareForPlayback(wav, targetLoudnessDBFS, fadeInDuration, fadeOutDuration)
	if err != nil {
		// Unprocessable audio is still playable; serve it as-is.
		s.logger.Warn("audio postprocessing skipped", "error", err)
		processed = wav
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	filename := fmt.Sprintf("tts_%s.wav", uuid.New().String())
	if err := os.WriteFile(filepath.Join(s.outputDir, filename), processed, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}

	audioURL := "/static/tts/" + filename
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, audioURL, audioCacheTTL); err != nil {
			s.logger.Warn("audio cache write failed", "error", err)
		}
	}
	return audioURL, nil
}

// cleanForSpeech softens hard stops that cause long pauses and spells
// out digit runs so the voice reads numbers as words.
func cleanForSpeech(text string) string {
	text = strings.ReplaceAll(text, "। তারপর", ", তারপর")
	return script.SpellOutDigits(text)
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
