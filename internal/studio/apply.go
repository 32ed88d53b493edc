package studio

import (
	"fmt"
	"strings"

	"clipstudio/internal/services"
	"clipstudio/internal/session"
)

// Apply folds ev into m and returns the next model plus the effects the caller
// must run. Apply never mutates m and performs no I/O.
//
// A user action that the current phase does not allow returns an
// *InvalidActionError and m unchanged; an empty prompt returns a validation
// error. Service results whose token does not match the in-flight work are
// stale and return m unchanged with no error.
func Apply(m Model, ev Event) (Model, []Effect, error) {
	if m.State == nil {
		m.State = Idle{}
	}
	switch e := ev.(type) {
	case Submit:
		return applySubmit(m, e)
	case Recreate:
		return applyRecreate(m)
	case AddClip:
		if err := checkAction(m, ActionAddClip); err != nil {
			return m, nil, err
		}
		next := m.clone()
		next.State = Idle{}
		next.Prompt = ""
		return next, nil, nil
	case Finalize:
		return applyFinalize(m, e)
	case RetryMerge:
		if err := checkAction(m, ActionRetryMerge); err != nil {
			return m, nil, err
		}
		next := m.clone()
		return startMerge(next)
	case NewSession:
		if err := checkAction(m, ActionNewSession); err != nil {
			return m, nil, err
		}
		next := NewModel(e.SessionID)
		next.nextToken = m.nextToken
		return next, nil, nil
	case JobSubmitted:
		gen, ok := m.State.(Generating)
		if !ok || gen.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		gen.Job = e.Job
		if gen.Job.Status == "" {
			gen.Job.Status = JobStatusStarting
		}
		next.State = gen
		return next, nil, nil
	case JobProgress:
		gen, ok := m.State.(Generating)
		if !ok || gen.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		gen.Job.Status = e.Status
		gen.Job.Logs = e.Logs
		next.State = gen
		return next, nil, nil
	case JobSucceeded:
		return applyJobSucceeded(m, e)
	case JobFailed:
		gen, ok := m.State.(Generating)
		if !ok || gen.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		next.State = Failed{Err: e.Err}
		return next, nil, nil
	case MergeSucceeded:
		mg, ok := m.State.(Merging)
		if !ok || mg.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		if e.Preview.Empty() {
			next.State = Ready{Err: services.Wrap(services.ErrMergeFailed, "studio", "merge", "stitch returned no url", nil)}
			return next, nil, nil
		}
		// The session cannot change while merging, so the merged URLs are
		// exactly the current clip list.
		next.previews[len(mg.URLs)-1] = e.Preview
		next.State = Ready{}
		return next, nil, nil
	case MergeFailed:
		mg, ok := m.State.(Merging)
		if !ok || mg.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		next.State = Ready{Err: e.Err}
		return next, nil, nil
	case Persisted:
		fin, ok := m.State.(Finalizing)
		if !ok || fin.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		next.State = Finalized{RecordID: e.RecordID, Video: fin.Video}
		return next, []Effect{Handoff{RecordID: e.RecordID, Video: fin.Video}}, nil
	case PersistFailed:
		fin, ok := m.State.(Finalizing)
		if !ok || fin.Token != e.Token {
			return m, nil, nil
		}
		next := m.clone()
		next.State = Ready{Err: e.Err}
		return next, nil, nil
	default:
		return m, nil, fmt.Errorf("studio: unsupported event %T", ev)
	}
}

// Stale reports whether a service result no longer matches in-flight work.
// User actions are never stale.
func Stale(m Model, ev Event) bool {
	token, ok := eventToken(ev)
	if !ok {
		return false
	}
	switch s := m.State.(type) {
	case Generating:
		return !isJobEvent(ev) || s.Token != token
	case Merging:
		return !isMergeEvent(ev) || s.Token != token
	case Finalizing:
		return !isPersistEvent(ev) || s.Token != token
	default:
		return true
	}
}

func applySubmit(m Model, e Submit) (Model, []Effect, error) {
	if err := checkAction(m, ActionSubmit); err != nil {
		return m, nil, err
	}
	prompt := strings.TrimSpace(e.Prompt)
	if prompt == "" {
		return m, nil, services.Wrap(services.ErrValidation, "studio", "submit", "prompt must not be empty", nil)
	}
	next := m.clone()
	next.Prompt = prompt
	return startJob(next, prompt)
}

func applyRecreate(m Model) (Model, []Effect, error) {
	if err := checkAction(m, ActionRecreate); err != nil {
		return m, nil, err
	}
	next := m.clone()
	last, _ := next.session.PopLast()
	next.previews = next.previews[:next.session.Len()]
	next.Prompt = last.Prompt
	return startJob(next, last.Prompt)
}

func applyJobSucceeded(m Model, e JobSucceeded) (Model, []Effect, error) {
	gen, ok := m.State.(Generating)
	if !ok || gen.Token != e.Token {
		return m, nil, nil
	}
	next := m.clone()
	url := strings.TrimSpace(e.URL)
	if url == "" {
		next.State = Failed{Err: services.Wrap(services.ErrMalformedResult, "studio", "poll", "job succeeded without output", nil)}
		return next, nil, nil
	}
	next.session.Append(session.Clip{URL: url, Prompt: gen.Prompt, JobID: gen.Job.ID})
	next.previews = next.previews[:next.session.Len()-1]
	if next.session.Len() == 1 {
		next.previews = append(next.previews, Preview{URL: url})
		next.State = Ready{}
		return next, nil, nil
	}
	next.previews = append(next.previews, Preview{})
	return startMerge(next)
}

func applyFinalize(m Model, e Finalize) (Model, []Effect, error) {
	if err := checkAction(m, ActionFinalize); err != nil {
		return m, nil, err
	}
	next := m.clone()
	video := BuildVideo(next, e.At)
	token := next.issueToken()
	next.State = Finalizing{Token: token, Video: video}
	return next, []Effect{Persist{Token: token, Video: video}}, nil
}

func startJob(next Model, prompt string) (Model, []Effect, error) {
	token := next.issueToken()
	next.State = Generating{Token: token, Prompt: prompt, Job: JobHandle{Status: JobStatusStarting}}
	return next, []Effect{StartJob{Token: token, Prompt: prompt}}, nil
}

func startMerge(next Model) (Model, []Effect, error) {
	token := next.issueToken()
	urls := next.session.URLs()
	next.State = Merging{Token: token, URLs: urls}
	return next, []Effect{Merge{Token: token, URLs: append([]string(nil), urls...)}}, nil
}

func eventToken(ev Event) (uint64, bool) {
	switch e := ev.(type) {
	case JobSubmitted:
		return e.Token, true
	case JobProgress:
		return e.Token, true
	case JobSucceeded:
		return e.Token, true
	case JobFailed:
		return e.Token, true
	case MergeSucceeded:
		return e.Token, true
	case MergeFailed:
		return e.Token, true
	case Persisted:
		return e.Token, true
	case PersistFailed:
		return e.Token, true
	default:
		return 0, false
	}
}

func isJobEvent(ev Event) bool {
	switch ev.(type) {
	case JobSubmitted, JobProgress, JobSucceeded, JobFailed:
		return true
	}
	return false
}

func isMergeEvent(ev Event) bool {
	switch ev.(type) {
	case MergeSucceeded, MergeFailed:
		return true
	}
	return false
}

func isPersistEvent(ev Event) bool {
	switch ev.(type) {
	case Persisted, PersistFailed:
		return true
	}
	return false
}
