package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bryanwahyu/medvision/internal/application"
	"github.com/bryanwahyu/medvision/internal/domain/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

// Briefer picks the team and query text for a request shape.
type Briefer interface {
	Brief(shape diagnosis.Shape, focus diagnosis.Focus) (ai.Team, string)
}

// Command is one analysis request. Credential is copied in by the caller
// and dropped when Analyze returns.
type Command struct {
	Credential diagnosis.Credential
	ModelID    string
	Focus      diagnosis.Focus
	Image      []byte
	Shape      diagnosis.Shape
}

type Service struct {
	client   ai.Client
	decoder  diagnosis.Decoder
	images   diagnosis.ImageStore
	host     diagnosis.ImageHost
	briefer  Briefer
	renderer diagnosis.Renderer
	clock    application.Clock
}

func NewService(
	client ai.Client,
	decoder diagnosis.Decoder,
	images diagnosis.ImageStore,
	host diagnosis.ImageHost,
	briefer Briefer,
	renderer diagnosis.Renderer,
	clock application.Clock,
) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{
		client:   client,
		decoder:  decoder,
		images:   images,
		host:     host,
		briefer:  briefer,
		renderer: renderer,
		clock:    clock,
	}
}

// Analyze runs decode, transient save, remote analysis and PDF render.
// The transient file and any hosted copy are gone by the time it returns,
// whatever the outcome.
func (s *Service) Analyze(ctx context.Context, cmd Command) (res *diagnosis.Result, err error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	start := s.clock.Now()
	defer func() {
		if err != nil {
			s.logStage(ctx, cmd, "failed", "duration=%s err=%v", s.clock.Now().Sub(start), err)
		}
	}()

	s.logStage(ctx, cmd, "ingesting", "bytes=%d", len(cmd.Image))
	img, err := s.decoder.Decode(cmd.Image)
	if err != nil {
		return nil, err
	}

	path, releaseFile, err := s.images.Save(img)
	if err != nil {
		return nil, fmt.Errorf("save transient image: %w", err)
	}
	releaseFile = sync.OnceFunc(releaseFile)
	defer releaseFile()

	ref, releaseRef, err := s.host.Reference(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: host image: %w", diagnosis.ErrRemoteCall, err)
	}
	releaseRef = sync.OnceFunc(releaseRef)
	defer releaseRef()

	team, query := s.briefer.Brief(cmd.Shape, cmd.Focus)
	binding := ai.Binding{ModelID: cmd.ModelID, Credential: string(cmd.Credential)}

	s.logStage(ctx, cmd, "invoking-remote", "format=%s focus=%q", img.Format, cmd.Focus.Joined())
	report, err := s.client.Run(ctx, binding, team, query, ref)
	if err != nil {
		if !errors.Is(err, diagnosis.ErrRemoteCall) {
			err = fmt.Errorf("%w: %w", diagnosis.ErrRemoteCall, err)
		}
		return nil, err
	}

	// file sementara dihapus sebelum render PDF
	releaseRef()
	releaseFile()

	s.logStage(ctx, cmd, "rendering", "report_chars=%d", len(report))
	at := s.clock.Now()
	pdf, err := s.renderer.Render(report, cmd.Focus.Primary(), diagnosis.Confidence, at)
	if err != nil {
		if !errors.Is(err, diagnosis.ErrRender) {
			err = fmt.Errorf("%w: %w", diagnosis.ErrRender, err)
		}
		return nil, err
	}

	s.logStage(ctx, cmd, "done", "duration=%s pdf_bytes=%d", s.clock.Now().Sub(start), len(pdf))

	return &diagnosis.Result{
		Report:      report,
		Confidence:  diagnosis.Confidence,
		PDF:         pdf,
		Focus:       cmd.Focus,
		ModelID:     cmd.ModelID,
		GeneratedAt: at,
	}, nil
}

// logStage never prints the credential or the report body.
func (s *Service) logStage(ctx context.Context, cmd Command, stage, format string, args ...any) {
	reqID := chimw.GetReqID(ctx)
	if reqID == "" {
		reqID = "-"
	}
	log.Printf("analysis stage=%s request_id=%s shape=%s model=%s %s",
		stage, reqID, cmd.Shape, cmd.ModelID, fmt.Sprintf(format, args...))
}

func validate(cmd Command) error {
	switch {
	case len(cmd.Image) == 0:
		return fmt.Errorf("%w: image is required", diagnosis.ErrInvalidInput)
	case cmd.ModelID == "":
		return fmt.Errorf("%w: model id is required", diagnosis.ErrInvalidInput)
	case len(cmd.Focus) == 0:
		return fmt.Errorf("%w: at least one focus label is required", diagnosis.ErrInvalidInput)
	}
	return nil
}
