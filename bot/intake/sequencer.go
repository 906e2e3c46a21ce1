package intake

import (
	"fmt"
	"strings"

	"github.com/m3rciful/carhub/bot/listing"
)

// Input is one user answer: text or a photo file id.
type Input struct {
	Text    string
	PhotoID string
}

// IsPhoto reports whether the input carries a photo.
func (in Input) IsPhoto() bool { return in.PhotoID != "" }

// Action tells the caller what to do with an Outcome.
type Action int

const (
	// ActionAsk stores the session and sends Prompt.
	ActionAsk Action = iota
	// ActionReject keeps the stored session and re-sends Prompt with the rejection notice.
	ActionReject
	// ActionFinalize hands Session.Draft to the terminal dispatcher.
	ActionFinalize
	// ActionCancel drops the session.
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionAsk:
		return "ask"
	case ActionReject:
		return "reject"
	case ActionFinalize:
		return "finalize"
	case ActionCancel:
		return "cancel"
	}
	return "unknown"
}

// Outcome is the result of applying one input to a session.
type Outcome struct {
	Action   Action
	Session  Session
	Prompt   Prompt
	Rejected *ValidationError
}

// Options tunes the sequencer.
type Options struct {
	// Confirm inserts a review screen between photos and finalization.
	Confirm bool
}

// Sequencer applies answers to sessions. It performs no I/O and keeps no
// per-session state, so one instance serves every conversation.
type Sequencer struct {
	confirm bool
}

// NewSequencer constructs a Sequencer.
func NewSequencer(opts Options) *Sequencer {
	return &Sequencer{confirm: opts.Confirm}
}

// Start opens a session of the given kind at the first question.
func (s *Sequencer) Start(id int64, kind listing.Kind) (Session, Prompt) {
	sess := Session{ID: id, State: StateMake, Draft: listing.Draft{Kind: kind}}
	return sess, promptFor(sess.State, sess.Draft)
}

// Prompt returns the question the session is waiting for.
func (s *Sequencer) Prompt(sess Session) Prompt {
	return promptFor(sess.State, sess.Draft)
}

type fieldRule func(d *listing.Draft, text string) *ValidationError

var fieldRules = map[State]fieldRule{
	StateMake:  func(d *listing.Draft, v string) *ValidationError { d.Make = v; return nil },
	StateModel: func(d *listing.Draft, v string) *ValidationError { d.Model = v; return nil },
	StateYear:  func(d *listing.Draft, v string) *ValidationError { d.Year = v; return nil },
	StateColor: func(d *listing.Draft, v string) *ValidationError { d.Color = v; return nil },
	StatePlateCode: func(d *listing.Draft, v string) *ValidationError {
		code, err := listing.ParsePlateCode(v)
		if err != nil {
			return reject(CodePlateCode, StatePlateCode, err)
		}
		d.PlateCode = code
		return nil
	},
	StatePlatePartial: func(d *listing.Draft, v string) *ValidationError {
		masked, err := listing.MaskPlate(v)
		if err != nil {
			return reject(CodePlateFragment, StatePlatePartial, err)
		}
		d.PlateMasked = masked
		return nil
	},
	StatePlateRegion: func(d *listing.Draft, v string) *ValidationError { d.PlateRegion = v; return nil },
	StatePrice:       func(d *listing.Draft, v string) *ValidationError { d.Price = v; return nil },
	StateAdvancePayment: func(d *listing.Draft, v string) *ValidationError {
		opt, ok := listing.MatchOption(listing.AdvancePaymentOptions, v)
		if !ok {
			return rejectOption(StateAdvancePayment, listing.AdvancePaymentOptions, v)
		}
		d.AdvancePayment = opt
		return nil
	},
	StateWarranty: func(d *listing.Draft, v string) *ValidationError {
		opt, ok := listing.MatchOption(listing.WarrantyOptions, v)
		if !ok {
			return rejectOption(StateWarranty, listing.WarrantyOptions, v)
		}
		d.Warranty = opt
		return nil
	},
	StatePurpose: func(d *listing.Draft, v string) *ValidationError {
		opt, ok := listing.MatchOption(listing.PurposeOptions, v)
		if !ok {
			return rejectOption(StatePurpose, listing.PurposeOptions, v)
		}
		d.Purpose = opt
		return nil
	},
	StateRegion: func(d *listing.Draft, v string) *ValidationError { d.Region = v; return nil },
	StatePhone: func(d *listing.Draft, v string) *ValidationError {
		if !listing.ValidPhone(v) {
			return reject(CodePhone, StatePhone, fmt.Errorf("phone %q", v))
		}
		d.Phone = v
		return nil
	},
	StateCondition: func(d *listing.Draft, v string) *ValidationError { d.Condition = v; return nil },
}

// Advance applies in to sess. A rejected input leaves the returned
// session identical to sess. The error is reserved for sessions that
// cannot accept input at all.
func (s *Sequencer) Advance(sess Session, in Input) (Outcome, error) {
	if !sess.Draft.Kind.Valid() {
		return Outcome{}, fmt.Errorf("intake: session %d has invalid kind %q", sess.ID, sess.Draft.Kind)
	}
	switch sess.State {
	case StateDone:
		return Outcome{}, ErrSessionComplete
	case StatePhotos:
		return s.advancePhotos(sess, in), nil
	case StateConfirm:
		return s.advanceConfirm(sess, in), nil
	}

	rule, ok := fieldRules[sess.State]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownState, sess.State)
	}
	if in.IsPhoto() {
		return s.rejected(sess, reject(CodeExpectText, sess.State, nil)), nil
	}

	draft := sess.Draft
	if verr := rule(&draft, in.Text); verr != nil {
		return s.rejected(sess, verr), nil
	}
	next, ok := Next(sess.State, draft.Kind)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: no transition from %q for %s", ErrUnknownState, sess.State, draft.Kind)
	}
	sess.Draft = draft
	sess.State = next
	return Outcome{Action: ActionAsk, Session: sess, Prompt: promptFor(next, draft)}, nil
}

func (s *Sequencer) advancePhotos(sess Session, in Input) Outcome {
	if in.IsPhoto() {
		if len(sess.Draft.Photos) >= listing.MaxPhotos {
			return s.rejected(sess, reject(CodePhotoLimit, StatePhotos, nil))
		}
		sess.Draft = sess.Draft.WithPhoto(in.PhotoID)
		return Outcome{Action: ActionAsk, Session: sess, Prompt: photoAck(sess.Draft)}
	}
	if !isFinishSignal(in.Text) {
		return s.rejected(sess, reject(CodeExpectPhoto, StatePhotos, nil))
	}
	if s.confirm {
		sess.State = StateConfirm
		return Outcome{Action: ActionAsk, Session: sess, Prompt: promptFor(StateConfirm, sess.Draft)}
	}
	next, _ := Next(StatePhotos, sess.Draft.Kind)
	sess.State = next
	return Outcome{Action: ActionFinalize, Session: sess}
}

func (s *Sequencer) advanceConfirm(sess Session, in Input) Outcome {
	switch strings.TrimSpace(in.Text) {
	case ButtonConfirm:
		sess.State = StateDone
		return Outcome{Action: ActionFinalize, Session: sess}
	case ButtonEdit:
		restarted, prompt := s.Start(sess.ID, sess.Draft.Kind)
		return Outcome{Action: ActionAsk, Session: restarted, Prompt: prompt}
	case ButtonCancel:
		return Outcome{Action: ActionCancel, Session: sess}
	}
	return s.rejected(sess, rejectOption(StateConfirm, []string{ButtonConfirm, ButtonEdit, ButtonCancel}, in.Text))
}

func (s *Sequencer) rejected(sess Session, verr *ValidationError) Outcome {
	return Outcome{
		Action:   ActionReject,
		Session:  sess,
		Prompt:   promptFor(sess.State, sess.Draft),
		Rejected: verr,
	}
}

func isFinishSignal(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(ButtonDone), strings.ToLower(ButtonSkip), "done", "skip", "/done", "/skip":
		return true
	}
	return false
}
