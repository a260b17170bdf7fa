package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// Snapshots and session boundaries persist as one JSON document per line.
// Absent measurements are omitted from the document entirely; a reader must
// treat an omitted field as absent, never as zero. A document that cannot be
// parsed structurally is a hard failure for that record only.

// annotationEnvelope is the wire form of one annotation: the kind tag plus
// the variant payload.
type annotationEnvelope struct {
	Kind AnnotationKind  `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// snapshotAlias breaks the MarshalJSON recursion on Snapshot.
type snapshotAlias Snapshot

type wireSnapshot struct {
	*snapshotAlias
	Annotations []annotationEnvelope `json:"annotations,omitempty"`
}

// MarshalJSON renders annotations as tagged envelopes so the variant type
// survives a round trip.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := wireSnapshot{snapshotAlias: (*snapshotAlias)(&s)}
	for _, a := range s.Annotations {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal %s annotation: %w", a.Kind(), err)
		}
		w.Annotations = append(w.Annotations, annotationEnvelope{Kind: a.Kind(), Data: data})
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes tagged annotation envelopes back into their concrete
// variants. An unknown kind or a malformed payload fails the whole document.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w wireSnapshot
	w.snapshotAlias = (*snapshotAlias)(s)
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Annotations = nil
	for _, env := range w.Annotations {
		a, err := decodeAnnotation(env)
		if err != nil {
			return err
		}
		s.Annotations = append(s.Annotations, a)
	}
	return nil
}

func decodeAnnotation(env annotationEnvelope) (Annotation, error) {
	var target Annotation
	switch env.Kind {
	case KindEntryOversteer:
		target = &EntryOversteer{}
	case KindMidCornerUndersteer:
		target = &MidCornerUndersteer{}
	case KindMidCornerOversteer:
		target = &MidCornerOversteer{}
	case KindBrakeLock:
		target = &BrakeLock{}
	case KindTireOverheating:
		target = &TireOverheating{}
	case KindTireCold:
		target = &TireCold{}
	case KindBottomingOut:
		target = &BottomingOut{}
	case KindSlip:
		target = &Slip{}
	case KindScrub:
		target = &Scrub{}
	case KindWheelspin:
		target = &Wheelspin{}
	case KindTrailbrakeSteering:
		target = &TrailbrakeSteering{}
	case KindShortShift:
		target = &ShortShift{}
	default:
		return nil, fmt.Errorf("unknown annotation kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return nil, fmt.Errorf("decode %s annotation: %w", env.Kind, err)
	}
	// Store the value, not the pointer, so round-tripped annotations compare
	// equal to freshly emitted ones.
	return reflect.ValueOf(target).Elem().Interface().(Annotation), nil
}

// RecordType distinguishes the two line kinds in a recorded stream.
type RecordType string

const (
	RecordSession  RecordType = "session"
	RecordSnapshot RecordType = "snapshot"
)

// Record is one persisted line: either a session boundary or a snapshot.
type Record struct {
	Type     RecordType   `json:"type"`
	Session  *SessionInfo `json:"session,omitempty"`
	Snapshot *Snapshot    `json:"snapshot,omitempty"`
}

// Encoder writes records as JSON lines.
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) encode(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", r.Type, err)
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// EncodeSession writes a session-boundary line.
func (e *Encoder) EncodeSession(info SessionInfo) error {
	return e.encode(Record{Type: RecordSession, Session: &info})
}

// EncodeSnapshot writes one snapshot line.
func (e *Encoder) EncodeSnapshot(s *Snapshot) error {
	return e.encode(Record{Type: RecordSnapshot, Snapshot: s})
}

// Flush drains buffered output to the underlying writer.
func (e *Encoder) Flush() error { return e.w.Flush() }

// Decoder reads a JSON-lines stream written by Encoder.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	// Snapshots with full tire data run long; allow generous lines.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Decoder{sc: sc}
}

// Next returns the next record, io.EOF when the stream ends, or an error
// naming the offending line when a record is structurally malformed.
func (d *Decoder) Next() (*Record, error) {
	for d.sc.Scan() {
		d.line++
		raw := d.sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("malformed record at line %d: %w", d.line, err)
		}
		switch r.Type {
		case RecordSession:
			if r.Session == nil {
				return nil, fmt.Errorf("malformed record at line %d: session record without session body", d.line)
			}
		case RecordSnapshot:
			if r.Snapshot == nil {
				return nil, fmt.Errorf("malformed record at line %d: snapshot record without snapshot body", d.line)
			}
		default:
			return nil, fmt.Errorf("malformed record at line %d: unknown record type %q", d.line, r.Type)
		}
		return &r, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
