package writer

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/internal/filters"
)

// Reserved object numbers. Dynamic allocation starts after them, so
// the document skeleton keeps stable IDs regardless of content.
const (
	CatalogID  = 1
	PageTreeID = 2
	InfoID     = 3

	firstDynamicID = 4
)

// CompressThreshold is the stream payload size, in bytes, above which
// MakeCompressedStream deflates. Below it the zlib framing would cost
// more than it saves.
const CompressThreshold = 64

// WriterError reports a violated writer invariant: a duplicate object
// number, a missing payload, a length that cannot be right. It is
// fatal for the output being built.
type WriterError struct {
	Msg string
}

func (e *WriterError) Error() string {
	return "writer: " + e.Msg
}

func writerErrorf(format string, args ...interface{}) *WriterError {
	return &WriterError{Msg: fmt.Sprintf(format, args...)}
}

// Writer allocates object numbers and assembles the output in a single
// pass that records each object's starting byte offset as it goes.
type Writer struct {
	objects map[int][]byte
	next    int
	flushed bool
	err     error
}

// NewWriter creates a writer with the three reserved IDs unassigned
// and dynamic allocation starting after them.
func NewWriter() *Writer {
	return &Writer{
		objects: make(map[int][]byte),
		next:    firstDynamicID,
	}
}

// fail records the first error permanently. Once the writer has failed
// it refuses all further work, including Flush.
func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

// Err returns the writer's sticky error, nil while it is healthy.
func (w *Writer) Err() error {
	return w.err
}

// AllocateID reserves the next object number. Every allocated ID must
// receive an object via SetObject before Flush.
func (w *Writer) AllocateID() int {
	id := w.next
	w.next++
	return id
}

// SetObject serializes obj and attaches it to an allocated or reserved
// ID. Assigning the same ID twice is a WriterError.
func (w *Writer) SetObject(id int, obj core.Object) error {
	if w.err != nil {
		return w.err
	}
	if w.flushed {
		return w.fail(writerErrorf("object %d set after flush", id))
	}
	if id < CatalogID || id >= w.next {
		return w.fail(writerErrorf("object %d was never allocated", id))
	}
	if _, dup := w.objects[id]; dup {
		return w.fail(writerErrorf("object %d assigned twice", id))
	}
	payload, err := serialize(obj)
	if err != nil {
		return w.fail(err)
	}
	w.objects[id] = payload
	return nil
}

// AddObject allocates an ID and attaches the object to it.
func (w *Writer) AddObject(obj core.Object) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	id := w.AllocateID()
	if err := w.SetObject(id, obj); err != nil {
		return 0, err
	}
	return id, nil
}

// Ref returns an indirect reference to an object number.
func Ref(id int) core.IndirectRef {
	return core.IndirectRef{Number: id}
}

// MakeStream builds a stream object around raw data, declaring its
// exact length. The caller's dictionary is used as-is plus /Length.
func MakeStream(dict core.Dict, data []byte) *core.Stream {
	d := make(core.Dict, len(dict)+1)
	for k, v := range dict {
		d[k] = v
	}
	d["Length"] = core.Int(len(data))
	return &core.Stream{Dict: d, Data: data}
}

// MakeCompressedStream builds a stream object, deflating the payload
// when it is above CompressThreshold and the dictionary declares no
// filter of its own.
func MakeCompressedStream(dict core.Dict, data []byte) *core.Stream {
	if len(data) <= CompressThreshold || dict.Has("Filter") {
		return MakeStream(dict, data)
	}
	compressed := filters.FlateEncode(data)
	d := make(core.Dict, len(dict)+2)
	for k, v := range dict {
		d[k] = v
	}
	d["Filter"] = core.Name("FlateDecode")
	d["Length"] = core.Int(len(compressed))
	return &core.Stream{Dict: d, Data: compressed}
}

// serialize renders one object's payload, the bytes between
// "N 0 obj" and "endobj". Streams are checked against their declared
// length; everything else serializes through its canonical text form,
// which renders dictionary keys in sorted order so identical input
// produces identical bytes.
func serialize(obj core.Object) ([]byte, error) {
	switch o := obj.(type) {
	case nil:
		return nil, writerErrorf("nil object")
	case *core.Stream:
		length, ok := o.Dict.GetInt("Length")
		if !ok {
			return nil, writerErrorf("stream without /Length")
		}
		if length < 0 {
			return nil, writerErrorf("stream with negative /Length %d", length)
		}
		if int(length) != len(o.Data) {
			return nil, writerErrorf("stream /Length %d does not match %d data bytes",
				length, len(o.Data))
		}
		var buf bytes.Buffer
		buf.WriteString(o.Dict.String())
		buf.WriteString("\nstream\n")
		buf.Write(o.Data)
		buf.WriteString("\nendstream")
		return buf.Bytes(), nil
	default:
		return []byte(obj.String()), nil
	}
}

// Flush writes the complete file: a header with a binary-marker
// comment, every object in ascending ID order, the cross-reference
// table with object 0 as the free-list head, and the trailer. Offsets
// are recorded as objects are written; each xref entry points exactly
// at its object's "N 0 obj" bytes.
func (w *Writer) Flush(out io.Writer) error {
	if w.err != nil {
		return w.err
	}
	if w.flushed {
		return w.fail(writerErrorf("flush called twice"))
	}
	for id := CatalogID; id < w.next; id++ {
		if _, ok := w.objects[id]; !ok {
			return w.fail(writerErrorf("object %d allocated but never written", id))
		}
	}

	ids := make([]int, 0, len(w.objects))
	for id := range w.objects {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")

	offsets := make(map[int]int, len(ids))
	for _, id := range ids {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", id)
		buf.Write(w.objects[id])
		buf.WriteString("\nendobj\n")
	}

	size := w.next
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id < size; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}

	trailer := core.Dict{
		"Size": core.Int(size),
		"Root": Ref(CatalogID),
		"Info": Ref(InfoID),
	}
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.String(), xrefOffset)

	w.flushed = true
	if _, err := out.Write(buf.Bytes()); err != nil {
		return w.fail(fmt.Errorf("writing output: %w", err))
	}
	return nil
}
