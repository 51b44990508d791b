package recordlist

import (
	"github.com/Makepad-fr/ttsdeck/internal/audio"
	"github.com/Makepad-fr/ttsdeck/internal/model"
)

// RecordsMsg carries the result of RefreshList.
type RecordsMsg struct {
	Records []model.Record
	Err     error
}

// AudioMsg carries the audio fetched by PlayRecord, already loaded into the
// sink. LoadErr is set when the fetch worked but the payload could not be
// stored.
type AudioMsg struct {
	ID      string
	Source  audio.Source
	Err     error
	LoadErr error
}

// DeletedMsg reports the outcome of DeleteRecord.
type DeletedMsg struct {
	ID  string
	Err error
}

// SynthesizedMsg carries the audio returned by SubmitText, loaded like
// AudioMsg.
type SynthesizedMsg struct {
	Source  audio.Source
	Err     error
	LoadErr error
}

// PlaybackMsg reports that audio arrived but could not be played.
type PlaybackMsg struct {
	Err error
}

type failure interface{ failed() error }

func (m RecordsMsg) failed() error     { return m.Err }
func (m AudioMsg) failed() error       { return m.Err }
func (m DeletedMsg) failed() error     { return m.Err }
func (m SynthesizedMsg) failed() error { return m.Err }
func (m PlaybackMsg) failed() error    { return m.Err }
