// Package foundation registers class decoders for the handful of Foundation
// collection and value classes common enough in real archives to be worth
// decoding into Go-native shapes instead of falling back to
// archive.GenericArchivedObject. It is wired only from internal/cli: the
// decoder core (wire, archive) has no knowledge of any concrete Foundation
// class.
package foundation

import (
	"fmt"

	"github.com/nxarchive/typedstream/archive"
	"github.com/nxarchive/typedstream/wire"
)

// Object is the decoded form of a bare NSObject: no ivars, just its place
// in the class chain.
type Object struct {
	ClassChain []wire.ClassLink
}

// String is the decoded form of NSString/NSMutableString.
type String struct {
	Value   string
	Mutable bool
}

// Array is the decoded form of NSArray/NSMutableArray.
type Array struct {
	Elements []any
	Mutable  bool
}

// DictEntry is one key/value pair of a decoded NSDictionary.
type DictEntry struct {
	Key   any
	Value any
}

// Dictionary is the decoded form of NSDictionary/NSMutableDictionary.
type Dictionary struct {
	Entries []DictEntry
	Mutable bool
}

// Number is the decoded form of NSNumber: whatever scalar it wraps, plus
// the type encoding it was archived with (since NSNumber itself erases that
// distinction at the Objective-C level).
type Number struct {
	Value    any
	Encoding string
}

// Data is the decoded form of NSData/NSMutableData.
type Data struct {
	Bytes   []byte
	Mutable bool
}

// Register adds decoders for NSObject, NSString, NSMutableString, NSArray,
// NSMutableArray, NSDictionary, NSMutableDictionary, NSNumber, NSData, and
// NSMutableData to reg.
func Register(reg *archive.Registry) {
	reg.Register("NSObject", decodeObject)
	reg.Register("NSString", decodeString(false))
	reg.Register("NSMutableString", decodeString(true))
	reg.Register("NSArray", decodeArray(false))
	reg.Register("NSMutableArray", decodeArray(true))
	reg.Register("NSDictionary", decodeDictionary(false))
	reg.Register("NSMutableDictionary", decodeDictionary(true))
	reg.Register("NSNumber", decodeNumber)
	reg.Register("NSData", decodeData(false))
	reg.Register("NSMutableData", decodeData(true))
}

// drainRemaining consumes any ivar groups left after a decoder believes it
// has read everything it knows about. A real archive shouldn't have extra
// groups at that point; tolerate and ignore them rather than fail the whole
// decode over an unexpected extra field.
func drainRemaining(u *archive.Unarchiver) error {
	for {
		_, _, done, err := u.ReadGroup()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func decodeObject(u *archive.Unarchiver, chain []wire.ClassLink) (any, error) {
	if err := drainRemaining(u); err != nil {
		return nil, err
	}
	return &Object{ClassChain: chain}, nil
}

func decodeString(mutable bool) archive.ClassDecoder {
	return func(u *archive.Unarchiver, chain []wire.ClassLink) (any, error) {
		_, values, done, err := u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if done || len(values) != 1 {
			return nil, fmt.Errorf("expected one c-string ivar, got done=%v values=%v", done, values)
		}
		raw, ok := values[0].([]byte)
		if !ok {
			return nil, fmt.Errorf("expected c-string bytes, got %T", values[0])
		}
		if err := drainRemaining(u); err != nil {
			return nil, err
		}
		return &String{Value: string(raw), Mutable: mutable}, nil
	}
}

func decodeArray(mutable bool) archive.ClassDecoder {
	return func(u *archive.Unarchiver, chain []wire.ClassLink) (any, error) {
		_, countValues, done, err := u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if done || len(countValues) != 1 {
			return nil, fmt.Errorf("expected one count ivar, got done=%v values=%v", done, countValues)
		}
		count, ok := countValues[0].(int64)
		if !ok || count < 0 {
			return nil, fmt.Errorf("expected a non-negative element count, got %v", countValues[0])
		}

		arr := &Array{Mutable: mutable, Elements: make([]any, 0, count)}
		for i := int64(0); i < count; i++ {
			_, values, done, err := u.ReadGroup()
			if err != nil {
				return nil, err
			}
			if done || len(values) != 1 {
				return nil, fmt.Errorf("expected element %d, got done=%v values=%v", i, done, values)
			}
			arr.Elements = append(arr.Elements, values[0])
		}
		if err := drainRemaining(u); err != nil {
			return nil, err
		}
		return arr, nil
	}
}

func decodeDictionary(mutable bool) archive.ClassDecoder {
	return func(u *archive.Unarchiver, chain []wire.ClassLink) (any, error) {
		_, countValues, done, err := u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if done || len(countValues) != 1 {
			return nil, fmt.Errorf("expected one count ivar, got done=%v values=%v", done, countValues)
		}
		count, ok := countValues[0].(int64)
		if !ok || count < 0 {
			return nil, fmt.Errorf("expected a non-negative entry count, got %v", countValues[0])
		}

		dict := &Dictionary{Mutable: mutable, Entries: make([]DictEntry, 0, count)}
		for i := int64(0); i < count; i++ {
			_, keyValues, done, err := u.ReadGroup()
			if err != nil {
				return nil, err
			}
			if done || len(keyValues) != 1 {
				return nil, fmt.Errorf("expected key %d, got done=%v values=%v", i, done, keyValues)
			}
			_, valValues, done, err := u.ReadGroup()
			if err != nil {
				return nil, err
			}
			if done || len(valValues) != 1 {
				return nil, fmt.Errorf("expected value %d, got done=%v values=%v", i, done, valValues)
			}
			dict.Entries = append(dict.Entries, DictEntry{Key: keyValues[0], Value: valValues[0]})
		}
		if err := drainRemaining(u); err != nil {
			return nil, err
		}
		return dict, nil
	}
}

func decodeNumber(u *archive.Unarchiver, chain []wire.ClassLink) (any, error) {
	encodings, values, done, err := u.ReadGroup()
	if err != nil {
		return nil, err
	}
	if done || len(values) != 1 {
		return nil, fmt.Errorf("expected one scalar ivar, got done=%v values=%v", done, values)
	}
	n := &Number{Value: values[0]}
	if len(encodings) == 1 {
		n.Encoding = string(encodings[0].Raw)
	}
	if err := drainRemaining(u); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeData(mutable bool) archive.ClassDecoder {
	return func(u *archive.Unarchiver, chain []wire.ClassLink) (any, error) {
		_, values, done, err := u.ReadGroup()
		if err != nil {
			return nil, err
		}
		if done || len(values) != 1 {
			return nil, fmt.Errorf("expected one bytes ivar, got done=%v values=%v", done, values)
		}
		raw, ok := values[0].([]byte)
		if !ok {
			return nil, fmt.Errorf("expected raw bytes, got %T", values[0])
		}
		if err := drainRemaining(u); err != nil {
			return nil, err
		}
		return &Data{Bytes: raw, Mutable: mutable}, nil
	}
}
