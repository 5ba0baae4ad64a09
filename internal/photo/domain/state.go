package domain

// AttachmentState is the ordered photo list of one form session. Index 0 is
// the primary photo. Transitions never modify the receiver; they return a new
// state with its own backing array.
type AttachmentState struct {
	Slots     []PhotoSlot
	MaxPhotos int
}

func NewAttachmentState(maxPhotos int) AttachmentState {
	return AttachmentState{MaxPhotos: maxPhotos}
}

// Seed replaces the slots with persisted URLs, truncated to MaxPhotos.
func (s AttachmentState) Seed(urls []string) AttachmentState {
	n := max(0, min(len(urls), s.MaxPhotos))
	slots := make([]PhotoSlot, 0, n)
	for _, u := range urls[:n] {
		slots = append(slots, Persisted(u))
	}
	return AttachmentState{Slots: slots, MaxPhotos: s.MaxPhotos}
}

// Room is how many more slots fit under MaxPhotos.
func (s AttachmentState) Room() int {
	return max(0, s.MaxPhotos-len(s.Slots))
}

// Append adds files as pending slots while room lasts. It returns the new
// state and the files that did not fit.
func (s AttachmentState) Append(files []LocalFile) (AttachmentState, []LocalFile) {
	room := s.Room()
	take := min(room, len(files))
	slots := s.copySlots(take)
	for _, f := range files[:take] {
		slots = append(slots, Pending(f))
	}
	return AttachmentState{Slots: slots, MaxPhotos: s.MaxPhotos}, files[take:]
}

// RemoveAt drops the slot at index. ok is false when index is out of range,
// in which case the state is returned unchanged.
func (s AttachmentState) RemoveAt(index int) (next AttachmentState, removed PhotoSlot, ok bool) {
	if index < 0 || index >= len(s.Slots) {
		return s, PhotoSlot{}, false
	}
	slots := make([]PhotoSlot, 0, len(s.Slots)-1)
	slots = append(slots, s.Slots[:index]...)
	slots = append(slots, s.Slots[index+1:]...)
	return AttachmentState{Slots: slots, MaxPhotos: s.MaxPhotos}, s.Slots[index], true
}

// Replace turns the pending slot at index into a persisted one, in place.
func (s AttachmentState) Replace(index int, url string) AttachmentState {
	slots := s.copySlots(0)
	slots[index] = Persisted(url)
	return AttachmentState{Slots: slots, MaxPhotos: s.MaxPhotos}
}

func (s AttachmentState) PersistedCount() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.IsPersisted() {
			n++
		}
	}
	return n
}

func (s AttachmentState) PendingCount() int {
	return len(s.Slots) - s.PersistedCount()
}

// URLs lists persisted URLs in slot order, capped at MaxPhotos.
func (s AttachmentState) URLs() []string {
	urls := make([]string, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.IsPersisted() && len(urls) < s.MaxPhotos {
			urls = append(urls, slot.URL)
		}
	}
	return urls
}

func (s AttachmentState) copySlots(extra int) []PhotoSlot {
	slots := make([]PhotoSlot, len(s.Slots), len(s.Slots)+extra)
	copy(slots, s.Slots)
	return slots
}
