package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/debaide/internal/transcriber"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	recognizeAttempts     = 2
	retryDelay            = 500 * time.Millisecond
)

var ErrEmptyAudio = errors.New("transcriber: empty audio")

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

type CloudSpeechTranscriber struct {
	client          recognizer
	closeFn         func() error
	recognizer      string
	defaultLanguage string
	model           string
}

func NewCloudSpeechTranscriber(ctx context.Context, cfg CloudSpeechConfig) (*CloudSpeechTranscriber, error) {
	location := strings.TrimSpace(cfg.Location)
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	slog.Info("cloud speech client ready", "location", location, "model", cfg.Model)
	return newCloudSpeechTranscriber(client, client.Close, cfg), nil
}

func newCloudSpeechTranscriber(client recognizer, closeFn func() error, cfg CloudSpeechConfig) *CloudSpeechTranscriber {
	return &CloudSpeechTranscriber{
		client:          client,
		closeFn:         closeFn,
		recognizer:      fmt.Sprintf("projects/%s/locations/%s/recognizers/_", cfg.ProjectID, strings.TrimSpace(cfg.Location)),
		defaultLanguage: cfg.Language,
		model:           strings.TrimSpace(cfg.Model),
	}
}

func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (transcriber.Transcript, error) {
	if len(audio) == 0 {
		return transcriber.Transcript{}, ErrEmptyAudio
	}
	if language == "" {
		language = t.defaultLanguage
	}
	req := &speechpb.RecognizeRequest{
		Recognizer: t.recognizer,
		Config: &speechpb.RecognitionConfig{
			Model:          t.model,
			LanguageCodes:  []string{language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{}},
			Features: &speechpb.RecognitionFeatures{
				EnableWordTimeOffsets:      true,
				EnableAutomaticPunctuation: true,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: audio},
	}

	var resp *speechpb.RecognizeResponse
	var err error
	for attempt := 1; attempt <= recognizeAttempts; attempt++ {
		resp, err = t.client.Recognize(ctx, req)
		if err == nil || !isRetryable(err) || attempt == recognizeAttempts {
			break
		}
		slog.Warn("cloud speech recognize failed with retryable error; retrying", "error", err, "attempt", attempt)
		select {
		case <-ctx.Done():
			return transcriber.Transcript{}, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return transcriber.Transcript{}, fmt.Errorf("recognize: %w", err)
	}
	return transcriptFromResponse(resp), nil
}

func transcriptFromResponse(resp *speechpb.RecognizeResponse) transcriber.Transcript {
	var parts []string
	var duration float64
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
		for _, w := range alts[0].GetWords() {
			if end := w.GetEndOffset().AsDuration().Seconds(); end > duration {
				duration = end
			}
		}
		if end := result.GetResultEndOffset().AsDuration().Seconds(); end > duration {
			duration = end
		}
	}
	return transcriber.Transcript{Text: strings.Join(parts, " "), Duration: duration}
}

func isRetryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

// Shutdown closes the underlying gRPC client.
func (t *CloudSpeechTranscriber) Shutdown() error {
	if t.closeFn == nil {
		return nil
	}
	return t.closeFn()
}
