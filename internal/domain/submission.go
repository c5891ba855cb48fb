package domain

import "time"

// Stage enumerates the lifecycle of a submission. A record only ever moves
// forward: Queued -> Built -> Delivered. The pair "mail sent but mesh not
// built" does not exist in this model.
type Stage int

const (
	StageQueued Stage = iota
	StageBuilt
	StageDelivered
)

// BuildDone reports whether the 3D mesh has been produced for this stage.
func (s Stage) BuildDone() bool { return s >= StageBuilt }

// MailDone reports whether the result email has been sent for this stage.
func (s Stage) MailDone() bool { return s >= StageDelivered }

func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageBuilt:
		return "built"
	case StageDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// StageFromFlags maps the persisted build/mail flag pair onto a Stage.
// The pair (build pending, mail done) has no legal stage and reports ok=false.
func StageFromFlags(buildDone, mailDone bool) (Stage, bool) {
	switch {
	case mailDone && !buildDone:
		return StageQueued, false
	case mailDone:
		return StageDelivered, true
	case buildDone:
		return StageBuilt, true
	default:
		return StageQueued, true
	}
}

// Submission is one user request to stylize a photo and convert it into a
// 3D mesh. Records are append-only; only Stage advances after creation.
type Submission struct {
	ID            int64
	ImageFilename string
	AnimeName     string
	Email         string
	Stage         Stage
	SubmittedAt   time.Time
}
