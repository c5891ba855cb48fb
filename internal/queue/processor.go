package queue

import (
	"context"

	"github.com/rs/zerolog"

	"chibichitra/internal/domain"
	"chibichitra/internal/ledger"
)

// MeshBuilder produces a 3D-mesh artifact from a processed image and returns
// the artifact's path. BuildMesh is invoked at most once per record per run;
// ArtifactPath reports where a previously built artifact lives, so delivery
// can be retried without rebuilding.
type MeshBuilder interface {
	BuildMesh(ctx context.Context, imageFilename string) (string, error)
	ArtifactPath(imageFilename string) string
}

// ResultMailer delivers a built artifact to the submitter.
type ResultMailer interface {
	SendResult(ctx context.Context, artifactPath, recipient string) error
}

// Summary reports what a single processor pass did.
type Summary struct {
	Records   int
	Built     int
	Delivered int
	Failed    int
	Wrote     bool
}

// Processor scans the ledger and advances every record through its pending
// transitions: build the mesh, then mail it. A record whose build fails is
// left alone until the next run; delivery is attempted in the same pass as a
// successful build.
type Processor struct {
	store   *ledger.Store
	builder MeshBuilder
	mailer  ResultMailer
	logger  zerolog.Logger
}

// NewProcessor wires the processor to its store and collaborators.
func NewProcessor(store *ledger.Store, builder MeshBuilder, mailer ResultMailer, logger zerolog.Logger) *Processor {
	return &Processor{store: store, builder: builder, mailer: mailer, logger: logger}
}

// RunOnce performs one scan-and-advance pass. Collaborator failures are
// contained to their record and logged; store failures abort the run.
// Nothing is written when no record advanced, so an immediate re-run is a
// no-op. Side-effecting work happens outside the store lock; the advances
// are then merged into a fresh snapshot under the lock, so submissions
// enqueued during a long build are never lost.
func (p *Processor) RunOnce(ctx context.Context) (Summary, error) {
	records, err := p.store.Load(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Records: len(records)}
	advanced := make(map[int64]domain.Stage)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		stage, ok := p.advance(ctx, rec, &sum)
		if ok {
			advanced[rec.ID] = stage
		}
	}

	if len(advanced) == 0 {
		p.logger.Info().Int("records", sum.Records).Msg("processor: no pending work")
		return sum, nil
	}

	err = p.store.Update(ctx, func(fresh []domain.Submission) ([]domain.Submission, bool, error) {
		changed := false
		for i := range fresh {
			if stage, ok := advanced[fresh[i].ID]; ok && stage > fresh[i].Stage {
				fresh[i].Stage = stage
				changed = true
			}
		}
		return fresh, changed, nil
	})
	if err != nil {
		return sum, err
	}
	sum.Wrote = true
	p.logger.Info().
		Int("records", sum.Records).
		Int("built", sum.Built).
		Int("delivered", sum.Delivered).
		Int("failed", sum.Failed).
		Msg("processor: pass complete")
	return sum, nil
}

// advance applies at most two transitions to one record and reports the
// highest stage reached. Mail is never attempted before the build succeeded.
func (p *Processor) advance(ctx context.Context, rec domain.Submission, sum *Summary) (domain.Stage, bool) {
	stage := rec.Stage
	artifact := ""

	if stage == domain.StageQueued {
		path, err := p.builder.BuildMesh(ctx, rec.ImageFilename)
		if err != nil {
			sum.Failed++
			p.logger.Error().Err(err).
				Int64("id", rec.ID).
				Str("image", rec.ImageFilename).
				Msg("processor: mesh build failed")
			return stage, false
		}
		stage = domain.StageBuilt
		artifact = path
		sum.Built++
		p.logger.Info().Int64("id", rec.ID).Str("artifact", path).Msg("processor: mesh built")
	}

	if stage == domain.StageBuilt {
		if artifact == "" {
			artifact = p.builder.ArtifactPath(rec.ImageFilename)
		}
		if err := p.mailer.SendResult(ctx, artifact, rec.Email); err != nil {
			sum.Failed++
			p.logger.Error().Err(err).
				Int64("id", rec.ID).
				Str("recipient", rec.Email).
				Msg("processor: delivery failed")
			return stage, stage > rec.Stage
		}
		stage = domain.StageDelivered
		sum.Delivered++
		p.logger.Info().Int64("id", rec.ID).Str("recipient", rec.Email).Msg("processor: result delivered")
	}

	return stage, stage > rec.Stage
}
