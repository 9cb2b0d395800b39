package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

const messageCheckUnavailable = constant.EMOJI_WARNING + " Não foi possível verificar a resposta agora. Por favor, tente novamente em instantes."

// Prompt is the question a session is waiting on.
type Prompt struct {
	Flow    models.FlowID
	State   models.StateID
	Text    string
	Kind    InputKind
	Options []models.Option // Choices of a SingleChoice state
	MinDate time.Time       // Earliest day a Date state accepts from the calendar, zero if unbounded
}

// Reply is what the engine hands back to the transport after every event.
type Reply struct {
	Notice   string           // Feedback shown before the prompt, or the terminal message
	Prompt   *Prompt          // Next question, nil once the flow ended
	Finished bool             // The session is gone and the user is back at the home menu
	Document *models.Document // Report to deliver, if any
	Release  func()           // Must be called once the document was delivered or dropped
}

// Engine runs flows for many users at once. Calls for one user are serialised.
type Engine struct {
	flows    map[models.FlowID]*Definition
	sessions SessionStore
	observer Observer
	locks    *userLocks
	now      func() time.Time
}

// NewEngine checks the flow definitions and builds an Engine over the session store.
// A nil observer disables notifications.
func NewEngine(sessions SessionStore, observer Observer, defs ...*Definition) (*Engine, error) {
	if observer == nil {
		observer = nopObserver{}
	}
	e := &Engine{
		flows:    make(map[models.FlowID]*Definition, len(defs)),
		sessions: sessions,
		observer: observer,
		locks:    newUserLocks(),
		now:      time.Now,
	}
	for _, def := range defs {
		if err := def.check(); err != nil {
			return nil, err
		}
		if _, dup := e.flows[def.ID]; dup {
			return nil, fmt.Errorf("flow %s registered twice", def.ID)
		}
		e.flows[def.ID] = def
	}
	return e, nil
}

// Start begins the flow for the user, replacing any session the user had.
// A refused entry guard returns a *RejectionError and leaves the user's state untouched.
func (e *Engine) Start(ctx context.Context, userID int64, flowID models.FlowID) (Reply, error) {
	def, ok := e.flows[flowID]
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	log := logrus.WithFields(logrus.Fields{"chatID": userID, "flow": flowID})
	if def.Guard != nil {
		reason, err := def.Guard(ctx, userID)
		if err != nil {
			log.WithError(err).Error("Entry guard lookup failed")
			return Reply{}, fmt.Errorf("%w: entry guard of %s: %w", ErrLookupFailed, flowID, err)
		}
		if reason != "" {
			log.Debug("Entry guard rejected the start")
			e.observer.FlowRejected(flowID)
			return Reply{}, &RejectionError{Flow: flowID, Message: reason}
		}
	}

	if old, ok := e.sessions.Get(userID); ok {
		e.sessions.Delete(userID)
		log.WithFields(logrus.Fields{"previousFlow": old.FlowID, "previousState": old.StateID}).
			Info("Stale session cleared by a new start")
		e.observer.FlowFinished(old.FlowID, ResultSuperseded)
	}

	now := e.now()
	session := &models.Session{
		UserID:    userID,
		FlowID:    flowID,
		Answers:   def.NewAnswers(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.observer.FlowStarted(flowID)
	log.Info("Flow started")
	return e.enter(ctx, def, session, def.Initial), nil
}

// Submit delivers one input to the user's active session.
// It returns ErrNoActiveFlow when the user has no session; every other outcome,
// including invalid input and failed side effects, is described by the Reply.
func (e *Engine) Submit(ctx context.Context, userID int64, in Input) (Reply, error) {
	unlock := e.locks.lock(userID)
	defer unlock()

	session, ok := e.sessions.Get(userID)
	if !ok {
		return Reply{}, ErrNoActiveFlow
	}
	log := logrus.WithFields(logrus.Fields{"chatID": userID, "flow": session.FlowID, "state": session.StateID})

	def, ok := e.flows[session.FlowID]
	if !ok {
		e.sessions.Delete(userID)
		log.Error("Session refers to an unregistered flow")
		return Reply{Notice: constant.MESSAGE_GENERIC_FAILURE, Finished: true}, nil
	}
	st, ok := def.States[session.StateID]
	if !ok {
		log.Error("Session refers to an unknown state")
		return e.fail(def, userID, constant.MESSAGE_GENERIC_FAILURE), nil
	}

	v, err := parse(st, session.Options, in)
	if err == nil && st.Validate != nil {
		err = st.Validate(ctx, session, v)
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.Debugf("Input rejected: %s", verr.Message)
			e.observer.ValidationFailed(def.ID, session.StateID)
			return e.reprompt(def, st, session, verr.Message), nil
		}
		log.WithError(err).Error("Input check failed")
		return e.reprompt(def, st, session, messageCheckUnavailable), nil
	}

	answers := session.Answers.Clone()
	tr := st.Accept(answers, v)
	switch tr.kind {
	case goTo:
		session.Answers = answers
		return e.enter(ctx, def, session, tr.next), nil
	case cancelled:
		e.finish(def.ID, userID, ResultCancelled)
		log.Info("Flow cancelled")
		notice := tr.notice
		if notice == "" {
			notice = constant.MESSAGE_CANCELLED
		}
		return Reply{Notice: notice, Finished: true}, nil
	default:
		return e.complete(ctx, def, userID, answers, tr.effect), nil
	}
}

// Cancel drops the user's session, if any. Calling it again is harmless.
func (e *Engine) Cancel(userID int64) Reply {
	unlock := e.locks.lock(userID)
	defer unlock()

	session, ok := e.sessions.Get(userID)
	if !ok {
		return Reply{Notice: constant.MESSAGE_NOTHING_TO_STOP, Finished: true}
	}
	e.finish(session.FlowID, userID, ResultCancelled)
	logrus.WithFields(logrus.Fields{"chatID": userID, "flow": session.FlowID, "state": session.StateID}).Info("Flow cancelled by user")
	return Reply{Notice: constant.MESSAGE_CANCELLED, Finished: true}
}

// Session returns a copy of the user's live session.
func (e *Engine) Session(userID int64) (*models.Session, bool) {
	return e.sessions.Get(userID)
}

// enter moves the session into a state and stores it.
// A state whose options come back empty ends the flow with its Empty notice.
func (e *Engine) enter(ctx context.Context, def *Definition, session *models.Session, id models.StateID) Reply {
	log := logrus.WithFields(logrus.Fields{"chatID": session.UserID, "flow": def.ID, "state": id})

	st, ok := def.States[id]
	if !ok {
		log.Error("Transition to an unknown state")
		return e.fail(def, session.UserID, constant.MESSAGE_GENERIC_FAILURE)
	}

	var options []models.Option
	if st.Options != nil {
		var err error
		options, err = st.Options(ctx, session.UserID)
		if err != nil {
			log.WithError(err).Error("Loading options failed")
			return e.fail(def, session.UserID, failureNotice(def, nil))
		}
		if len(options) == 0 {
			if st.Empty == "" {
				log.Error("Choice state has no options")
				return e.fail(def, session.UserID, failureNotice(def, nil))
			}
			e.finish(def.ID, session.UserID, ResultShortCircuit)
			log.Info("Nothing to choose from, flow ended")
			return Reply{Notice: st.Empty, Finished: true}
		}
	}

	session.StateID = id
	session.Options = options
	session.UpdatedAt = e.now()
	e.sessions.Put(session)
	return Reply{Prompt: buildPrompt(def, st, session)}
}

// complete runs the side effect of a finished flow. The session is destroyed whatever happens.
func (e *Engine) complete(ctx context.Context, def *Definition, userID int64, answers models.Answers, effect SideEffect) Reply {
	log := logrus.WithFields(logrus.Fields{"chatID": userID, "flow": def.ID})

	if err := answers.Complete(); err != nil {
		log.WithError(err).Error("Flow completed with missing answers")
		return e.fail(def, userID, failureNotice(def, nil))
	}

	out, err := runEffect(ctx, effect, userID, answers)
	if err != nil {
		log.WithError(err).Error("Flow side effect failed")
		return e.fail(def, userID, failureNotice(def, err))
	}

	e.finish(def.ID, userID, ResultCompleted)
	log.Info("Flow completed")
	return Reply{Notice: out.Notice, Finished: true, Document: out.Document, Release: out.Release}
}

func (e *Engine) fail(def *Definition, userID int64, notice string) Reply {
	e.finish(def.ID, userID, ResultFailed)
	return Reply{Notice: notice, Finished: true}
}

func (e *Engine) finish(flowID models.FlowID, userID int64, result Result) {
	e.sessions.Delete(userID)
	e.observer.FlowFinished(flowID, result)
}

func (e *Engine) reprompt(def *Definition, st State, session *models.Session, notice string) Reply {
	return Reply{Notice: notice, Prompt: buildPrompt(def, st, session)}
}

func runEffect(ctx context.Context, effect SideEffect, userID int64, answers models.Answers) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("side effect panicked: %v", r)
		}
	}()
	return effect(ctx, userID, answers)
}

func failureNotice(def *Definition, err error) string {
	var ferr *FailureError
	if errors.As(err, &ferr) && ferr.Message != "" {
		return ferr.Message
	}
	if def.FailureNotice != "" {
		return def.FailureNotice
	}
	return constant.MESSAGE_GENERIC_FAILURE
}

func buildPrompt(def *Definition, st State, session *models.Session) *Prompt {
	p := &Prompt{
		Flow:    def.ID,
		State:   session.StateID,
		Text:    st.Prompt(session.Answers),
		Kind:    st.Kind,
		Options: append([]models.Option(nil), session.Options...),
	}
	if st.MinDate != nil {
		p.MinDate = st.MinDate(session.Answers)
	}
	return p
}
