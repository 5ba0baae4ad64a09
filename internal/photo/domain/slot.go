package domain

import (
	"io"
)

type SlotKind int

const (
	SlotPersisted SlotKind = iota + 1
	SlotPending
)

func (k SlotKind) String() string {
	switch k {
	case SlotPersisted:
		return "persisted"
	case SlotPending:
		return "pending"
	default:
		return "unknown"
	}
}

// LocalFile is a file the user picked but that has not been uploaded yet.
// Open may be called more than once; each call returns a fresh reader.
// Stat, when set, reports the current size and content type of the source,
// which may have changed since the file was picked.
type LocalFile struct {
	Name      string
	SizeBytes int64
	MimeType  string
	Open      func() (io.ReadCloser, error)
	Stat      func() (size int64, mimeType string, err error)
}

// Refresh returns f with SizeBytes and MimeType re-read through Stat.
// Without a Stat hook f is returned unchanged.
func (f LocalFile) Refresh() (LocalFile, error) {
	if f.Stat == nil {
		return f, nil
	}
	size, mimeType, err := f.Stat()
	if err != nil {
		return f, err
	}
	f.SizeBytes = size
	f.MimeType = mimeType
	return f, nil
}

// PhotoSlot is one entry in a listing's photo list. Exactly one of URL
// (persisted) or File (pending) is meaningful, as selected by Kind.
type PhotoSlot struct {
	Kind SlotKind
	URL  string
	File LocalFile
}

func Persisted(url string) PhotoSlot { return PhotoSlot{Kind: SlotPersisted, URL: url} }

func Pending(f LocalFile) PhotoSlot { return PhotoSlot{Kind: SlotPending, File: f} }

func (s PhotoSlot) IsPersisted() bool { return s.Kind == SlotPersisted }

func (s PhotoSlot) IsPending() bool { return s.Kind == SlotPending }

// UploadResult is what the remote store hands back for one uploaded file.
type UploadResult struct {
	URL string `json:"url"`
}
