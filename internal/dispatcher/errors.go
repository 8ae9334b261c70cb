package dispatcher

import "errors"

// Named values for the error kinds of §7. The dispatcher handles each kind
// at its own call site and does not return or match these values: store
// errors go through onTransientError's counter and backoff without a
// terminal transition, while a missing file, a child failure or an empty
// transcription finishes the job with a notification. None of them crashes
// the dispatcher loop.
var (
	ErrTransientStore     = errors.New("dispatcher: transient store error")
	ErrFileMissing        = errors.New("dispatcher: file missing")
	ErrChildFailure       = errors.New("dispatcher: child process failure")
	ErrEmptyTranscription = errors.New("dispatcher: empty transcription")
)

// UserCancelled and NotificationFailure aren't modeled as errors: the former
// is a boolean observed via IsCancelled, the latter is logged and swallowed
// at the notify call site, never returned.
