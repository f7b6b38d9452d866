package statesync

import (
	"sync"
	"time"
)

// Profile declares which feed is authoritative for a field when both feeds
// have fresh data. Implementations are read-only lookup tables; the
// synchronizer never mutates them.
type Profile interface {
	// PreferredSource returns the authoritative source for the field.
	// ok is false when the profile has no opinion for that field.
	PreferredSource(f Field) (source Source, ok bool)
}

// defaultPriority is the global source order used when no profile is set.
// Freshness still overrides static priority.
var defaultPriority = []Source{SourceUPnP, SourceHTTP}

// Snapshot is the typed merged view of a device's state. Nil pointers mean
// the attribute has not been observed (or was explicitly cleared).
type Snapshot struct {
	PlayState *string
	Volume    *int
	Muted     *bool
	Title     *string
	Artist    *string
	Album     *string
	Position  *int
	Duration  *int
	Source    *string
	ImageURL  *string

	Health        SourceHealth
	HTTPUpdatedAt time.Time
	UPnPUpdatedAt time.Time
}

// SourceHealth reports whether each feed has ever supplied data.
type SourceHealth struct {
	HTTPAvailable bool
	UPnPAvailable bool
}

// Synchronizer merges HTTP-polled and UPnP-evented observations of a single
// device into one consistent view. One Synchronizer is owned by exactly one
// device connection.
//
// Updates and reads may come from the refresh loop, the UPnP notify handler
// and CLI readers, so internal maps are guarded by a mutex. The merge itself
// is a pure recomputation from the stored per-source observations; there is
// no queue of pending updates.
type Synchronizer struct {
	mu sync.Mutex

	// Propagated values live in httpFields tagged SourcePropagated so the
	// resolver can give them top priority.
	httpFields map[Field]TimestampedField
	upnpFields map[Field]TimestampedField
	merged     map[Field]TimestampedField

	profile Profile
	now     func() time.Time

	httpSeen      bool
	upnpSeen      bool
	httpUpdatedAt time.Time
	upnpUpdatedAt time.Time
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithProfile sets the per-field source-priority profile.
func WithProfile(p Profile) Option {
	return func(s *Synchronizer) { s.profile = p }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// New creates a Synchronizer with no observations.
func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{
		httpFields: make(map[Field]TimestampedField),
		upnpFields: make(map[Field]TimestampedField),
		merged:     make(map[Field]TimestampedField),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetProfile swaps the source-priority profile and recomputes the merged
// view under the new rules.
func (s *Synchronizer) SetProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.recompute()
}

// Profile returns the current profile, or nil.
func (s *Synchronizer) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// UpdateFromHTTP stamps every field present in data with the given
// timestamp, tagged as HTTP-sourced. Fields absent from data are left
// untouched; a partial poll never erases unrelated fields. A zero ts means
// "now". An explicit nil value records a null observation, except for
// volume and muted where a previously merged value is preserved (grouped
// slaves omit these from their polls while in a group).
func (s *Synchronizer) UpdateFromHTTP(data map[Field]any, ts time.Time) {
	s.update(s.httpFields, data, SourceHTTP, ts)
}

// UpdateFromPropagated records fields pushed down from a group master.
// They share HTTP storage but carry the propagated tag, which wins
// unconditionally during conflict resolution until overwritten.
func (s *Synchronizer) UpdateFromPropagated(data map[Field]any, ts time.Time) {
	s.update(s.httpFields, data, SourcePropagated, ts)
}

// UpdateFromUPnP stamps every field present in data as UPnP-sourced.
// Play-state values are normalized before storage.
func (s *Synchronizer) UpdateFromUPnP(data map[Field]any, ts time.Time) {
	s.update(s.upnpFields, data, SourceUPnP, ts)
}

func (s *Synchronizer) update(store map[Field]TimestampedField, data map[Field]any, src Source, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ts.IsZero() {
		ts = s.now()
	}

	for f, v := range data {
		if src == SourceHTTP && v == nil && (f == FieldVolume || f == FieldMuted) {
			if prev, ok := s.merged[f]; ok && prev.Value != nil {
				continue
			}
		}
		if src == SourceUPnP && f == FieldPlayState {
			v = NormalizePlayState(v)
		}
		if v != nil && (f == FieldPosition || f == FieldDuration) {
			// A feed occasionally delivers garbage here; keep the
			// previous observation rather than poisoning the estimator.
			if _, ok := toInt(v); !ok {
				continue
			}
		}
		store[f] = TimestampedField{Value: v, Source: src, Timestamp: ts, Confidence: 1}
	}

	switch src {
	case SourceUPnP:
		s.upnpSeen = true
		s.upnpUpdatedAt = ts
	default:
		s.httpSeen = true
		s.httpUpdatedAt = ts
	}

	s.recompute()
}

// recompute rebuilds the cached merged projection from the per-source
// observations. Pure and idempotent; callers hold the lock.
func (s *Synchronizer) recompute() {
	now := s.now()
	merged := make(map[Field]TimestampedField, len(trackedFields))

	for _, f := range trackedFields {
		h, hok := s.httpFields[f]
		u, uok := s.upnpFields[f]
		switch {
		case !hok && !uok:
			continue
		case hok && !uok:
			merged[f] = h
		case !hok && uok:
			merged[f] = u
		default:
			merged[f] = s.resolve(f, h, u, now)
		}
	}

	s.merged = merged
}

// resolve picks the winning observation for a field that both sides have
// reported. Exactly one rule applies per call; discrete values are never
// blended.
func (s *Synchronizer) resolve(f Field, h, u TimestampedField, now time.Time) TimestampedField {
	// Master-pushed values outrank the slave's own observations until the
	// next propagation or the slave's own data overwrites the slot. This
	// closes the race between group-join and the slave's next event.
	if h.Source == SourcePropagated {
		return h
	}

	if metadataFields[f] {
		return resolveMetadata(f, h, u, now)
	}

	return s.resolveByPriority(f, h, u, now)
}

// resolveMetadata prefers fresh, non-sentinel UPnP metadata: several source
// apps only push track info over UPnP while the HTTP poll reports stale or
// blank values.
func resolveMetadata(f Field, h, u TimestampedField, now time.Time) TimestampedField {
	hValid := isValidMetadataValue(f, h.Value)
	uValid := isValidMetadataValue(f, u.Value)

	switch {
	case uValid && u.IsFresh(f, now):
		return u
	case hValid:
		return h
	case uValid:
		return u
	}

	// Both sides are empty or sentinel: the field is cleared.
	cleared := newer(h, u)
	cleared.Value = nil
	return cleared
}

// resolveByPriority applies the profile's declared source preference (or
// the default priority order) for transport fields, with freshness
// overriding static priority. Stale data remains usable as a last resort.
func (s *Synchronizer) resolveByPriority(f Field, h, u TimestampedField, now time.Time) TimestampedField {
	order := defaultPriority
	if s.profile != nil {
		if src, ok := s.profile.PreferredSource(f); ok {
			switch src {
			case SourceHTTP:
				order = []Source{SourceHTTP, SourceUPnP}
			case SourceUPnP:
				order = []Source{SourceUPnP, SourceHTTP}
			}
		}
	}

	bySource := func(src Source) TimestampedField {
		if src == SourceHTTP {
			return h
		}
		return u
	}

	for _, src := range order {
		if c := bySource(src); c.IsFresh(f, now) {
			return c
		}
	}

	// Neither side is fresh: the less stale one wins, preferred source on
	// a tie.
	first := bySource(order[0])
	second := bySource(order[1])
	if second.Timestamp.After(first.Timestamp) {
		return second
	}
	return first
}

func newer(a, b TimestampedField) TimestampedField {
	if b.Timestamp.After(a.Timestamp) {
		return b
	}
	return a
}

// MergedState returns the merged view as a flat mapping. Every tracked
// field is present, unobserved ones as nil, plus a _source_health sub-map.
// Pure and non-mutating.
func (s *Synchronizer) MergedState() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(trackedFields)+1)
	for _, f := range trackedFields {
		if tf, ok := s.merged[f]; ok {
			out[string(f)] = tf.Value
		} else {
			out[string(f)] = nil
		}
	}
	out["_source_health"] = map[string]bool{
		"http_available": s.httpSeen,
		"upnp_available": s.upnpSeen,
	}
	return out
}

// StateObject returns the merged view as a typed Snapshot.
func (s *Synchronizer) StateObject() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Health: SourceHealth{
			HTTPAvailable: s.httpSeen,
			UPnPAvailable: s.upnpSeen,
		},
		HTTPUpdatedAt: s.httpUpdatedAt,
		UPnPUpdatedAt: s.upnpUpdatedAt,
	}

	snap.PlayState = s.stringField(FieldPlayState)
	snap.Volume = s.intField(FieldVolume)
	snap.Muted = s.boolField(FieldMuted)
	snap.Title = s.stringField(FieldTitle)
	snap.Artist = s.stringField(FieldArtist)
	snap.Album = s.stringField(FieldAlbum)
	snap.Position = s.intField(FieldPosition)
	snap.Duration = s.intField(FieldDuration)
	snap.Source = s.stringField(FieldSource)
	snap.ImageURL = s.stringField(FieldImageURL)
	return snap
}

func (s *Synchronizer) stringField(f Field) *string {
	if tf, ok := s.merged[f]; ok && tf.Value != nil {
		if v, ok := toString(tf.Value); ok {
			return &v
		}
	}
	return nil
}

func (s *Synchronizer) intField(f Field) *int {
	if tf, ok := s.merged[f]; ok && tf.Value != nil {
		if v, ok := toInt(tf.Value); ok {
			return &v
		}
	}
	return nil
}

func (s *Synchronizer) boolField(f Field) *bool {
	if tf, ok := s.merged[f]; ok && tf.Value != nil {
		if v, ok := toBool(tf.Value); ok {
			return &v
		}
	}
	return nil
}

// TickPositionEstimation returns the estimated playback position in whole
// seconds. While playing it extrapolates from the last observed position
// and its timestamp, clamped to [0, duration] when a duration is known;
// while paused it returns the last observed position unmodified. ok is
// false when no position has ever been observed.
func (s *Synchronizer) TickPositionEstimation() (pos int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, found := s.merged[FieldPosition]
	if !found || tf.Value == nil {
		return 0, false
	}
	pos, numeric := toInt(tf.Value)
	if !numeric {
		return 0, false
	}

	playing := false
	if st, ok := s.merged[FieldPlayState]; ok {
		if v, ok := toString(st.Value); ok {
			playing = v == "play"
		}
	}
	if !playing {
		return pos, true
	}

	est := pos + int(s.now().Sub(tf.Timestamp).Seconds())
	if est < 0 {
		est = 0
	}
	if dtf, ok := s.merged[FieldDuration]; ok && dtf.Value != nil {
		if dur, ok := toInt(dtf.Value); ok && est > dur {
			est = dur
		}
	}
	return est, true
}
