package core

import (
	"fmt"
	"sync"

	"github.com/quirepdf/quire/internal/filters"
)

// Stream represents a PDF stream object: a dictionary plus raw binary data.
// Decode results are memoized, so a stream shared between goroutines is
// decompressed at most once.
type Stream struct {
	Dict Dict
	Data []byte

	// Limit caps the decoded size in bytes. Zero means the package
	// default. Guards against decompression bombs.
	Limit int64

	mu        sync.Mutex
	decoded   []byte
	decodeErr error
	didDecode bool
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary. It supports FlateDecode, ASCIIHexDecode, ASCII85Decode,
// CCITTFaxDecode, and filter chains. DCTDecode and JPXDecode payloads pass
// through untouched: they are complete image containers, not wrappers.
// Returns the decoded data or an error.
func (s *Stream) Decode() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.didDecode {
		return s.decoded, s.decodeErr
	}
	s.decoded, s.decodeErr = s.decode()
	s.didDecode = true
	return s.decoded, s.decodeErr
}

func (s *Stream) decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Data, nil
	}

	limit := s.Limit
	if limit <= 0 {
		limit = filters.DefaultMaxOutput
	}

	paramsObj := s.Dict.Get("DecodeParms")
	if paramsObj == nil {
		paramsObj = s.Dict.Get("DP")
	}

	// Single filter
	if filterName, ok := filterObj.(Name); ok {
		return decodeWithFilter(s.Data, string(filterName), paramsObjToDict(paramsObj), limit)
	}

	// Filter array: apply each filter in sequence with its matching
	// DecodeParms entry
	if filterArray, ok := filterObj.(Array); ok {
		data := s.Data

		for i, filter := range filterArray {
			filterName, ok := filter.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %T", i, filter)
			}

			var params Dict
			if paramsArray, ok := paramsObj.(Array); ok {
				if i < len(paramsArray) {
					params = paramsObjToDict(paramsArray[i])
				}
			} else {
				// Single params apply to every filter
				params = paramsObjToDict(paramsObj)
			}

			var err error
			data, err = decodeWithFilter(data, string(filterName), params, limit)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s) failed: %w", i, filterName, err)
			}
		}

		return data, nil
	}

	return nil, fmt.Errorf("invalid Filter type: %T", filterObj)
}

// IsImagePassthrough reports whether the stream's final filter leaves a
// complete image container (JPEG or JPEG2000) in the data.
func (s *Stream) IsImagePassthrough() bool {
	switch f := s.Dict.Get("Filter").(type) {
	case Name:
		return isPassthroughFilter(string(f))
	case Array:
		if len(f) == 0 {
			return false
		}
		if name, ok := f[len(f)-1].(Name); ok {
			return isPassthroughFilter(string(name))
		}
	}
	return false
}

func isPassthroughFilter(name string) bool {
	switch name {
	case "DCTDecode", "DCT", "JPXDecode":
		return true
	}
	return false
}

// decodeWithFilter applies a single decompression filter to data.
// The filterName should be a PDF filter name (e.g., "FlateDecode") or its
// abbreviated form (e.g., "Fl").
func decodeWithFilter(data []byte, filterName string, params Dict, limit int64) ([]byte, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		out, err := filters.FlateDecodeLimit(data, dictToParams(params), limit)
		if err != nil {
			return nil, &StreamDecodeError{Filter: "FlateDecode", Err: err}
		}
		return out, nil

	case "ASCIIHexDecode", "AHx":
		out, err := filters.ASCIIHexDecode(data)
		if err != nil {
			return nil, &StreamDecodeError{Filter: "ASCIIHexDecode", Err: err}
		}
		return out, nil

	case "ASCII85Decode", "A85":
		out, err := filters.ASCII85Decode(data)
		if err != nil {
			return nil, &StreamDecodeError{Filter: "ASCII85Decode", Err: err}
		}
		return out, nil

	case "CCITTFaxDecode", "CCF":
		out, err := filters.CCITTFaxDecode(data, dictToParams(params))
		if err != nil {
			return nil, &StreamDecodeError{Filter: "CCITTFaxDecode", Err: err}
		}
		return out, nil

	case "DCTDecode", "DCT", "JPXDecode":
		// Complete image containers pass through untouched
		return data, nil

	case "LZWDecode", "LZW":
		return nil, &StreamDecodeError{Filter: filterName, Err: fmt.Errorf("not supported")}

	case "RunLengthDecode", "RL":
		return nil, &StreamDecodeError{Filter: filterName, Err: fmt.Errorf("not supported")}

	case "JBIG2Decode":
		return nil, &StreamDecodeError{Filter: filterName, Err: fmt.Errorf("not supported")}

	case "Crypt":
		return nil, &StreamDecodeError{Filter: filterName, Err: fmt.Errorf("not supported")}

	default:
		return nil, &StreamDecodeError{Filter: filterName, Err: fmt.Errorf("unknown filter")}
	}
}

// paramsObjToDict converts a DecodeParms object to a Dict.
// Returns nil if the object is nil, Null, or not a Dict.
func paramsObjToDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams converts a core.Dict to filters.Params, translating PDF object
// types to Go primitive types (Int->int, Real->float64, Bool->bool, etc.).
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params)
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
