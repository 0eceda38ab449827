// Package loader reads a compiled artifact file and splits the
// version specific container header from the marshal payload.
package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/retroenv/pycgodisasm/internal/marshal"
	"github.com/retroenv/pycgodisasm/internal/pyver"
)

// ErrUnknownMagic indicates a magic number that maps to no supported
// bytecode format version.
var ErrUnknownMagic = errors.New("unknown magic number")

// magicRange maps a range of magic numbers to the format version that
// produced them.
type magicRange struct {
	first, last uint16
	version     pyver.Version
}

var magicRanges = []magicRange{
	{3360, 3379, pyver.Version{Major: 3, Minor: 6}},
	{3390, 3394, pyver.Version{Major: 3, Minor: 7}},
	{3400, 3413, pyver.Version{Major: 3, Minor: 8}},
}

// Invalidation header flag bits, 3.7 and later.
const (
	flagHashBased   = 0x1
	flagCheckedHash = 0x2
)

// Artifact is a loaded compiled artifact: the parsed container header
// and the marshal payload positioned past it.
type Artifact struct {
	Magic   uint16
	Version pyver.Version

	Flags      uint32 // invalidation flags, 3.7+
	Timestamp  uint32 // source mtime, timestamp based invalidation
	SourceSize uint32 // source file size, timestamp based invalidation
	SourceHash []byte // source hash, hash based invalidation

	Payload []byte // marshal encoded value graph
}

// HashBased returns whether the artifact uses hash based invalidation.
func (a *Artifact) HashBased() bool {
	return a.Flags&flagHashBased != 0
}

// CheckedHash returns whether the source hash is validated on import.
func (a *Artifact) CheckedHash() bool {
	return a.Flags&flagCheckedHash != 0
}

// Load reads a compiled artifact and parses its container header.
func Load(reader io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Parse(data)
}

// Parse parses the container header of an in-memory artifact.
func Parse(data []byte) (*Artifact, error) {
	cursor := marshal.NewCursor(data)

	magic, err := cursor.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	tail, err := cursor.ReadBytes(2)
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if tail[0] != '\r' || tail[1] != '\n' {
		return nil, fmt.Errorf("magic number %d has invalid trailer % x: %w",
			magic, tail, ErrUnknownMagic)
	}

	version, err := versionForMagic(magic)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Magic:   magic,
		Version: version,
	}

	if version.AtLeast(3, 7) {
		if artifact.Flags, err = cursor.ReadU32(); err != nil {
			return nil, fmt.Errorf("reading header flags: %w", err)
		}
	}

	if artifact.HashBased() {
		if artifact.SourceHash, err = cursor.ReadBytes(8); err != nil {
			return nil, fmt.Errorf("reading source hash: %w", err)
		}
	} else {
		if artifact.Timestamp, err = cursor.ReadU32(); err != nil {
			return nil, fmt.Errorf("reading timestamp: %w", err)
		}
		if artifact.SourceSize, err = cursor.ReadU32(); err != nil {
			return nil, fmt.Errorf("reading source size: %w", err)
		}
	}

	artifact.Payload = data[cursor.Pos():]
	return artifact, nil
}

func versionForMagic(magic uint16) (pyver.Version, error) {
	for _, r := range magicRanges {
		if magic >= r.first && magic <= r.last {
			return r.version, nil
		}
	}
	return pyver.Version{}, fmt.Errorf("magic number %d: %w", magic, ErrUnknownMagic)
}
