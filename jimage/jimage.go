/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2022-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jimage provides random-access lookup of a named resource inside
// a single bundled platform image file. The image is memory-mapped
// rather than read fully into memory; lookups touch only the pages the
// hash probe and attribute walk actually visit.
package jimage

import (
	"encoding/binary"
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Seed used by the resource hash.
const Seed uint32 = 0x01000193

var (
	ErrCorruptHeader = errors.New("jimage: corrupted image header")
	ErrIndexOOB      = errors.New("jimage: invalid resource index")
	ErrIOFailure     = errors.New("jimage: image file I/O failure")
)

// header mirrors the image's five-section layout: redirect table,
// attribute-offsets table, attribute-data section, strings section, data
// section, each located by an absolute byte offset recorded in the
// header.
type header struct {
	bigEndian            bool
	numResources         int
	redirectOffset       int64
	attrOffsetsOffset    int64
	attrDataOffset       int64
	stringsOffset        int64
	dataOffset           int64
}

const headerMagic uint32 = 0xCAFEDADA

// Reader provides Lookup over a single memory-mapped image file.
type Reader struct {
	file *os.File
	data mmap.MMap
	hdr  header
}

// Open memory-maps path and parses its header. The caller must call
// Close when done to unmap and release the file descriptor.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrIOFailure
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, ErrIOFailure
	}
	r := &Reader{file: f, data: data}
	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) Close() error {
	if r.data != nil {
		_ = r.data.Unmap()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Reader) byteOrder() binary.ByteOrder {
	if r.hdr.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (r *Reader) parseHeader() error {
	if len(r.data) < 32 {
		return ErrCorruptHeader
	}
	// try big-endian first, falling back to little-endian if the magic
	// doesn't match — the endianness indicator tells which one
	// a real image uses, but probing both keeps this resilient to images
	// built on either host architecture.
	be := binary.BigEndian.Uint32(r.data[0:4])
	le := binary.LittleEndian.Uint32(r.data[0:4])

	var order binary.ByteOrder
	switch headerMagic {
	case be:
		order = binary.BigEndian
		r.hdr.bigEndian = true
	case le:
		order = binary.LittleEndian
		r.hdr.bigEndian = false
	default:
		return ErrCorruptHeader
	}

	r.hdr.numResources = int(order.Uint32(r.data[4:8]))
	r.hdr.redirectOffset = int64(order.Uint32(r.data[8:12]))
	r.hdr.attrOffsetsOffset = int64(order.Uint32(r.data[12:16]))
	r.hdr.attrDataOffset = int64(order.Uint32(r.data[16:20]))
	r.hdr.stringsOffset = int64(order.Uint32(r.data[20:24]))
	r.hdr.dataOffset = int64(order.Uint32(r.data[24:28]))

	if r.hdr.numResources < 0 {
		return ErrCorruptHeader
	}
	return nil
}

// Hash computes the resource hash: a 31-bit accumulator,
// seeded by seed, multiplied by Seed and XORed with each byte of name.
func Hash(name string, seed uint32) int32 {
	var hash int32 = int32(seed)
	for i := 0; i < len(name); i++ {
		hash = (hash * int32(Seed)) ^ int32(name[i])
		hash &= 0x7FFFFFFF
	}
	return hash
}

func (r *Reader) redirectSlot(bucket int) int32 {
	off := r.hdr.redirectOffset + int64(bucket)*4
	return int32(r.byteOrder().Uint32(r.data[off : off+4]))
}

func (r *Reader) attrOffset(resourceIndex int) int32 {
	off := r.hdr.attrOffsetsOffset + int64(resourceIndex)*4
	return int32(r.byteOrder().Uint32(r.data[off : off+4]))
}

func (r *Reader) readCString(offset int64) string {
	start := r.hdr.stringsOffset + offset
	end := start
	for end < int64(len(r.data)) && r.data[end] != 0 {
		end++
	}
	return string(r.data[start:end])
}

// ResourceAttributes is the (module, parent, base, extension) tuple
// recovered from a resource's attribute-data span, used both to
// reconstruct the resource's full path and to serve as the decoded
// metadata the VM's class loader consults.
type ResourceAttributes struct {
	Module    string
	Parent    string
	Base      string
	Extension string
}

// Attributes decodes the (module, parent, base, extension) tuple for the
// resource at resourceIndex by walking its attribute-data span: a
// sequence of (kind byte, value) pairs terminated by a zero kind byte,
// where each value is either an offset into the strings section or a
// small packed integer, depending on kind. Kinds 0 terminates; 1=module,
// 2=parent, 3=base, 4=extension, matching the attribute kinds the real
// jimage format reserves for path reconstruction.
func (r *Reader) Attributes(resourceIndex int) (ResourceAttributes, error) {
	if resourceIndex < 0 || resourceIndex >= r.hdr.numResources {
		return ResourceAttributes{}, ErrIndexOOB
	}
	off := r.hdr.attrDataOffset + int64(r.attrOffset(resourceIndex))
	var attrs ResourceAttributes
	pos := off
	for pos < int64(len(r.data)) {
		kind := r.data[pos]
		pos++
		if kind == 0 {
			break
		}
		if pos+4 > int64(len(r.data)) {
			return ResourceAttributes{}, ErrCorruptHeader
		}
		value := int64(r.byteOrder().Uint32(r.data[pos : pos+4]))
		pos += 4
		switch kind {
		case 1:
			attrs.Module = r.readCString(value)
		case 2:
			attrs.Parent = r.readCString(value)
		case 3:
			attrs.Base = r.readCString(value)
		case 4:
			attrs.Extension = r.readCString(value)
		}
	}
	return attrs, nil
}

// resourcePath reconstructs "/{module}/{parent}/{base}.{extension}" with
// parent optional, used to detect hash collisions as false positives.
func resourcePath(attrs ResourceAttributes) string {
	path := "/" + attrs.Module + "/"
	if attrs.Parent != "" {
		path += attrs.Parent + "/"
	}
	path += attrs.Base
	if attrs.Extension != "" {
		path += "." + attrs.Extension
	}
	return path
}

// Lookup resolves name to its resource index using the redirect-table hash
// probe, verifying the reconstructed path to reject hash collisions.
func (r *Reader) Lookup(name string) (int, bool) {
	if r.hdr.numResources == 0 {
		return 0, false
	}
	h0 := Hash(name, Seed)
	bucket := int(h0) % r.hdr.numResources
	slot := r.redirectSlot(bucket)

	var resourceIndex int
	switch {
	case slot < 0:
		resourceIndex = int(-1 - slot)
	case slot > 0:
		h := Hash(name, uint32(slot))
		resourceIndex = int(h) % r.hdr.numResources
	default: // slot == 0
		resourceIndex = bucket
	}

	if resourceIndex < 0 || resourceIndex >= r.hdr.numResources {
		return 0, false
	}
	attrs, err := r.Attributes(resourceIndex)
	if err != nil {
		return 0, false
	}
	if resourcePath(attrs) != name {
		return 0, false // hash collision: the candidate is not actually `name`
	}
	return resourceIndex, true
}

// ResourceData returns the bytes at resourceIndex's location in the data
// section. length must be supplied by the caller (typically read from an
// adjoining attribute kind not modeled above, or from a companion size
// table).
func (r *Reader) ResourceData(resourceIndex int, offset, length int64) ([]byte, error) {
	if resourceIndex < 0 || resourceIndex >= r.hdr.numResources {
		return nil, ErrIndexOOB
	}
	start := r.hdr.dataOffset + offset
	end := start + length
	if start < 0 || end > int64(len(r.data)) {
		return nil, ErrCorruptHeader
	}
	return r.data[start:end], nil
}

// ReadModuleName resolves a resource to the module it belongs to, used by
// the module system to answer "which module provides package
// P" without loading the resource's bytes.
func (r *Reader) ReadModuleName(resourceIndex int) (string, error) {
	attrs, err := r.Attributes(resourceIndex)
	if err != nil {
		return "", err
	}
	return attrs.Module, nil
}

// ModuleNames lists every module that owns at least one resource in the
// image, in first-seen order.
func (r *Reader) ModuleNames() []string {
	seen := make(map[string]bool)
	var names []string
	for i := 0; i < r.hdr.numResources; i++ {
		attrs, err := r.Attributes(i)
		if err != nil || attrs.Module == "" {
			continue
		}
		if !seen[attrs.Module] {
			seen[attrs.Module] = true
			names = append(names, attrs.Module)
		}
	}
	return names
}

// PackageToModule answers "which module provides package pkg" by
// scanning resource parents (a resource's parent is its slash-delimited
// package directory).
func (r *Reader) PackageToModule(pkg string) (string, bool) {
	for i := 0; i < r.hdr.numResources; i++ {
		attrs, err := r.Attributes(i)
		if err != nil {
			continue
		}
		if attrs.Parent == pkg {
			return attrs.Module, true
		}
	}
	return "", false
}
