// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blocklog implements the append-only blocks.log file: a sequence
// of length-framed, CRC32C-checked block records. It plays the role
// EXCCoin's database package plays as the chain's durable backing store,
// specialized to godcoin's single-file, append-only log rather than a
// general-purpose bucketed database.
package blocklog

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"github.com/godcoin-go/godcoin/block"
)

// ErrCorruptBlock is returned by ReadAt when the stored CRC32C does not
// match the block bytes.
var ErrCorruptBlock = errors.New("blocklog: corrupt block record")

// frameOverhead is the length prefix plus the CRC32C footer: 4 bytes each.
const frameOverhead = 4 + 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Log is the append-only block log file. It is safe for concurrent ReadAt
// calls; Append must be serialized by the caller (the chain facade's write
// lock does this).
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if absent) the log file at path for append and
// random-access read.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{file: f}, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

// Append serializes block, writes its length-framed, CRC32C-footed record
// at the current end of file, flushes to disk, and returns the byte offset
// of the record's length prefix. A partial write is treated as fatal: the
// caller should abort the process rather than continue on a torn file,
// per spec.md §7's block-log error handling.
func (l *Log) Append(b *block.Block) (offset int64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	encoded := b.Encode()
	record := make([]byte, 0, frameOverhead+len(encoded))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(encoded)))
	record = append(record, lenBuf[:]...)
	record = append(record, encoded...)

	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc32.Checksum(encoded, castagnoli))
	record = append(record, crcBuf[:]...)

	off, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	n, err := l.file.Write(record)
	if err != nil {
		return 0, err
	}
	if n != len(record) {
		return 0, errors.New("blocklog: partial write, log is in an inconsistent state")
	}
	if err := l.file.Sync(); err != nil {
		return 0, err
	}
	return off, nil
}

// ReadAt reads and CRC-verifies the block record whose length prefix starts
// at offset.
func (l *Log) ReadAt(offset int64) (*block.Block, error) {
	var lenBuf [4]byte
	if _, err := l.file.ReadAt(lenBuf[:], offset); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])

	body := make([]byte, length)
	if _, err := l.file.ReadAt(body, offset+4); err != nil {
		return nil, err
	}

	var crcBuf [4]byte
	if _, err := l.file.ReadAt(crcBuf[:], offset+4+int64(length)); err != nil {
		return nil, err
	}
	wantCrc := binary.BigEndian.Uint32(crcBuf[:])
	gotCrc := crc32.Checksum(body, castagnoli)
	if wantCrc != gotCrc {
		return nil, ErrCorruptBlock
	}

	return block.Decode(body)
}

// Recover scans the log from startOffset to EOF, validating each record's
// framing and CRC, and truncates the file at the first position that is
// not a complete, valid record -- a crash mid-append leaves a trailing
// partial record that must not be replayed. It returns the offset of the
// last valid record found, or -1 if none were found at or after
// startOffset.
func (l *Log) Recover(startOffset int64) (lastValidOffset int64, err error) {
	info, err := l.file.Stat()
	if err != nil {
		return -1, err
	}
	size := info.Size()

	lastValidOffset = -1
	pos := startOffset
	for pos < size {
		if pos+4 > size {
			break
		}
		var lenBuf [4]byte
		if _, err := l.file.ReadAt(lenBuf[:], pos); err != nil {
			break
		}
		length := int64(binary.BigEndian.Uint32(lenBuf[:]))

		recordEnd := pos + 4 + length + 4
		if recordEnd > size {
			break
		}

		body := make([]byte, length)
		if _, err := l.file.ReadAt(body, pos+4); err != nil {
			break
		}
		var crcBuf [4]byte
		if _, err := l.file.ReadAt(crcBuf[:], pos+4+length); err != nil {
			break
		}
		if binary.BigEndian.Uint32(crcBuf[:]) != crc32.Checksum(body, castagnoli) {
			break
		}

		lastValidOffset = pos
		pos = recordEnd
	}

	if pos != size {
		if err := l.file.Truncate(pos); err != nil {
			return lastValidOffset, err
		}
	}
	return lastValidOffset, nil
}
